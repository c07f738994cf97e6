package cmd

import (
	"fmt"

	"github.com/Alia5/gobjgen/internal/codegen/common"
)

type Version struct{}

func (v *Version) Run() error {
	version, err := common.GetVersion()
	if err != nil {
		return err
	}
	fmt.Println("gobjgen", version)
	return nil
}
