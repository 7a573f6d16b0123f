package uds

import "io"

// CmdHnd is one console command. Fn writes its output to w; a returned error is
// printed with the usage line.
type CmdHnd struct {
	Desc  string
	Usage string
	Fn    func(args []string, w io.Writer) error
}
