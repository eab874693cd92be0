package root

import (
	blackoutcmd "github.com/clubreserve/clubreserve/apps/cli/cmd/blackout"
	clubcmd "github.com/clubreserve/clubreserve/apps/cli/cmd/club"
)

func init() {
	Root().AddCommand(clubcmd.Command())
	Root().AddCommand(blackoutcmd.Command())
}
