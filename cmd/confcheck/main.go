// Command confcheck checks configuration files against a sample server schema.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/hashicorp/hcl/v2"

	"github.com/sikol/blockconf"
)

type Limit interface{}

type Route struct {
	Path    string        `config:"path"`
	Backend []string      `config:"backend"`
	Timeout time.Duration `config:"timeout"`
	Limit   Limit         `config:"limit"`
}

type Server struct {
	Name    string
	Listen  []blockconf.Pair[string, uint16] `config:"listen"`
	Aliases map[string]struct{}              `config:"alias"`
	TLS     bool                             `config:"tls"`
	Routes  []*Route                         `config:"route"`
}

type Config struct {
	Workers  int                `config:"workers"`
	LogLevel string             `config:"log-level"`
	Servers  map[string]*Server `config:"server,key=Name"`
}

var (
	version = "dev"
	cli     struct {
		Version kong.VersionFlag
		Check   checkCmd   `cmd:"" help:"Check configuration files."`
		Dump    dumpCmd    `cmd:"" help:"Parse a configuration file and print the result."`
		Grammar grammarCmd `cmd:"" help:"Print the EBNF of the configuration language."`
	}
)

type parserFlags struct {
	MaxErrors int  `help:"Diagnostics to collect per file before giving up." default:"10"`
	Color     bool `help:"Colour diagnostics."`
	Width     uint `help:"Wrap diagnostics at this width." default:"100"`
}

func (f *parserFlags) parser() (*blockconf.Parser[Config], error) {
	return blockconf.Build[Config](
		blockconf.Union[Limit](int64(0), ""),
		blockconf.MaxErrors(f.MaxErrors),
	)
}

// report writes diagnostics for a failed parse.
func (f *parserFlags) report(path string, err error) error {
	var perr *blockconf.Error
	if !errors.As(err, &perr) {
		return err
	}
	files := map[string]*hcl.File{}
	if data, rerr := os.ReadFile(path); rerr == nil {
		files[path] = &hcl.File{Bytes: data}
	}
	wr := hcl.NewDiagnosticTextWriter(os.Stderr, files, f.Width, f.Color)
	if werr := wr.WriteDiagnostics(perr.HCLDiagnostics()); werr != nil {
		return werr
	}
	return fmt.Errorf("%s: %d error(s)", path, len(perr.Diagnostics))
}

type checkCmd struct {
	parserFlags
	Files []string `arg:"" type:"path" help:"Files to check."`
}

func (c *checkCmd) Run() error {
	parser, err := c.parser()
	if err != nil {
		return err
	}
	var failed error
	for _, path := range c.Files {
		if _, err := parser.ParseFile(path); err != nil {
			failed = c.report(path, err)
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	return failed
}

type dumpCmd struct {
	parserFlags
	File string `arg:"" type:"path" help:"File to parse."`
}

func (d *dumpCmd) Run() error {
	parser, err := d.parser()
	if err != nil {
		return err
	}
	config, err := parser.ParseFile(d.File)
	if err != nil {
		return d.report(d.File, err)
	}
	repr.Println(config, repr.Indent("  "), repr.OmitEmpty(true))
	return nil
}

type grammarCmd struct{}

func (g *grammarCmd) Run() error {
	parser, err := (&parserFlags{MaxErrors: 1}).parser()
	if err != nil {
		return err
	}
	fmt.Println(parser.String())
	return nil
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Description(`Check configuration files against a sample server schema.`),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
