// Package docs renders the command reference section of README.md from the
// command registry.
package docs

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sort"
	"text/template"

	"replybot/internal/command"
	"replybot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// CommandSections groups registered commands by category and lists each
// command with its options.
func CommandSections(registry *cmd.Registry) string {
	commands := registry.GetAll()
	sort.SliceStable(commands, func(i, j int) bool {
		return category(commands[i]) < category(commands[j])
	})

	var buf bytes.Buffer
	current := ""
	for _, c := range commands {
		cat := category(c)
		if cat != current || buf.Len() == 0 {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			current = cat
			fmt.Fprintf(&buf, "### %s\n\n", current)
		}

		fmt.Fprintf(&buf, "- **/%s**: %s\n", c.Name(), c.Description())
		for _, opt := range options(c) {
			req := ""
			if opt.Required {
				req = ", required"
			}
			fmt.Fprintf(&buf, "  - `%s` (%s%s): %s\n", opt.Name, optionType(opt.Type), req, opt.Description)
		}
	}
	return buf.String()
}

// UpdateReadme executes the template at tmplPath with the command sections
// and writes the result to outPath.
func UpdateReadme(registry *cmd.Registry, tmplPath, outPath string) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}

	data := struct {
		CommandSections string
	}{
		CommandSections: CommandSections(registry),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("render readme: %w", err)
	}
	if err := os.WriteFile(outPath, out.Bytes(), 0644); err != nil {
		return err
	}

	log.Printf("[INFO] %s updated with %d command(s)", outPath, len(registry.GetAll()))
	return nil
}

func category(c cmd.Command) string {
	if meta, ok := cmd.As[command.DiscordMeta](c); ok && meta.Category() != "" {
		return meta.Category()
	}
	return "Other"
}

func options(c cmd.Command) []*discordgo.ApplicationCommandOption {
	a := command.Adapter(c)
	if a == nil {
		return nil
	}
	def := a.SlashDefinition()
	if def == nil {
		return nil
	}
	return def.Options
}

func optionType(t discordgo.ApplicationCommandOptionType) string {
	switch t {
	case discordgo.ApplicationCommandOptionString:
		return "text"
	case discordgo.ApplicationCommandOptionInteger:
		return "integer"
	case discordgo.ApplicationCommandOptionBoolean:
		return "boolean"
	case discordgo.ApplicationCommandOptionNumber:
		return "number"
	case discordgo.ApplicationCommandOptionUser:
		return "user"
	case discordgo.ApplicationCommandOptionChannel:
		return "channel"
	default:
		return fmt.Sprintf("type %d", t)
	}
}
