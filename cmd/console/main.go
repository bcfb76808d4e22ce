package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/menta2k/sys2doc"
	"github.com/menta2k/sys2doc/internal/config"
	"github.com/menta2k/sys2doc/internal/logging"
	"github.com/menta2k/sys2doc/internal/utils"
	"github.com/menta2k/sys2doc/pkg/describe"
	"github.com/menta2k/sys2doc/pkg/intake"
)

func main() {
	err := mainImpl()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("conf", "config.yml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := logging.New(conf.Env)

	factory, err := sys2doc.NewFactory(conf, nil)
	if err != nil {
		return err
	}
	svc := describe.NewService(factory, sys2doc.ServiceOptions(conf), log)
	defer func() {
		_ = svc.Close()
	}()
	gen := sys2doc.New(intake.NewWithConfig(sys2doc.IntakeConfig(conf), log), svc, sys2doc.PageOptions(conf), log)

	fmt.Println("Sys2Doc: enter an image path or URL per line, Ctrl-D to quit")
	rl, err := readline.New("> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		describeLine(gen, line)
		fmt.Println()
		fmt.Println(sys2doc.Disclaimer)
	}
	return nil
}

func describeLine(gen *sys2doc.Sys2Doc, line string) {
	src, closeFn, err := sourceFor(line)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer closeFn()

	res, err := gen.Generate(context.Background(), src)
	if err != nil {
		fmt.Println(sys2doc.UserMessage(err))
		return
	}

	fmt.Println("## Image")
	fmt.Printf("file_name: %s\nfile_type: %s\nfile_size: %s\n",
		res.Details.Name, res.Details.Type, utils.FormatFileSize(res.Details.Size))
	fmt.Printf("%dx%d %s -> %s\n\n", res.Width, res.Height, res.Mode, res.NormalizedMode)
	fmt.Println("## Description")
	fmt.Println(res.Description)
}

// sourceFor treats an existing file as an upload and anything else as a URL
func sourceFor(line string) (intake.Source, func(), error) {
	info, err := os.Stat(line)
	if err != nil || info.IsDir() {
		return intake.Source{URL: line}, func() {}, nil
	}

	f, err := os.Open(line)
	if err != nil {
		return intake.Source{}, nil, err
	}

	return intake.Source{File: &intake.Upload{
		Name:        filepath.Base(line),
		ContentType: mime.TypeByExtension(filepath.Ext(line)),
		Size:        info.Size(),
		Reader:      f,
	}}, func() { _ = f.Close() }, nil
}
