package main

import (
	"flag"
	"log"

	"replybot/internal/command/core"
	"replybot/internal/command/vocab"
	"replybot/internal/docs"
	"replybot/pkg/cmd"
)

func main() {
	tmplPath := flag.String("template", "README.md.tmpl", "readme template")
	outPath := flag.String("out", "README.md", "output file")
	flag.Parse()

	vocab.Register(nil)
	core.Register()

	if err := docs.UpdateReadme(cmd.DefaultRegistry, *tmplPath, *outPath); err != nil {
		log.Fatalf("[ERR] %v", err)
	}
}
