package shell

import (
	"embed"
	"errors"
	"io"
	"path"
	"strings"
)

//go:embed helptext
var helptext embed.FS

func usage(w io.Writer) {
	dat, err := helptext.ReadFile("helptext/usage.txt")
	if err != nil {
		io.WriteString(w, "Error loading helptext: "+err.Error())
		return
	}
	w.Write(dat)
}

func usageTopic(w io.Writer, topic string) error {
	dat, err := helptext.ReadFile(path.Join("helptext", path.Base(topic)+".txt"))
	if err != nil {
		return errors.New("there is no help text for the topic " + topic)
	}
	_, err = w.Write(dat)
	return err
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var b strings.Builder
	if len(cmd.args) == 0 {
		usage(&b)
		return msg(strings.TrimRight(b.String(), "\n")), nil
	}
	if err := usageTopic(&b, cmd.args[0]); err != nil {
		return nil, err
	}
	return msg(strings.TrimRight(b.String(), "\n")), nil
}
