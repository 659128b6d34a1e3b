package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/mission-script/pkg/dialogue"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

const minWidth = 20

// renderMission lays out a mission as terminal text, wrapped to width columns.
func renderMission(m *dialogue.MainMission, width int) string {
	if width < minWidth {
		width = minWidth
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", orUnnamed(m.Name), m.ID)))
	b.WriteString("\n")
	if m.Description != "" {
		b.WriteString(fill(m.Description, width))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d scripts, %d sentences", len(m.Scripts), m.SentenceCount())))
	b.WriteString("\n")

	for _, sub := range m.Scripts {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("[%s %d]", sub.Type, sub.ID)))
		b.WriteString("\n")
		if sub.UIInfo != nil {
			if sub.UIInfo.TargetText != "" {
				b.WriteString(infoStyle.Render(fill("Target: "+sub.UIInfo.TargetText, width)))
				b.WriteString("\n")
			}
			if sub.UIInfo.DescriptionText != "" {
				b.WriteString(infoStyle.Render(fill(sub.UIInfo.DescriptionText, width)))
				b.WriteString("\n")
			}
		}
		if sub.Summary != nil {
			b.WriteString(dimStyle.Render(fill("Summary: "+*sub.Summary, width)))
			b.WriteString("\n")
		}
		if sub.Script == nil {
			continue
		}
		for i, block := range sub.Script.Blocks {
			if i > 0 {
				b.WriteString(separator(width))
				b.WriteString("\n")
			}
			renderBlock(&b, block, width, 0)
		}
	}
	return b.String()
}

func renderBlock(b *strings.Builder, block dialogue.Block, width int, depth uint) {
	pad := depth * 4
	for _, el := range block {
		switch v := el.(type) {
		case dialogue.Sentence:
			b.WriteString(indent.String(renderSentence(v, width-int(pad)), pad))
			b.WriteString("\n")
		case dialogue.OptionGroup:
			for n, choice := range v.Choices {
				line := playerStyle.Render(fmt.Sprintf("%d) ", n+1)) + renderSentence(choice.Option, width-int(pad)-3)
				b.WriteString(indent.String(line, pad))
				b.WriteString("\n")
				renderBlock(b, choice.FollowUp, width, depth+1)
			}
		}
	}
}

func renderSentence(s dialogue.Sentence, width int) string {
	speaker := s.Speaker
	if speaker == "" {
		return fill(s.Text, width)
	}
	style := speakerStyle
	if s.Option {
		style = playerStyle
	}
	return style.Render(speaker+": ") + fill(s.Text, width-lipgloss.Width(speaker)-2)
}

// fill wraps on word boundaries, then hard-wraps lines that have none (CJK).
func fill(text string, width int) string {
	if width < minWidth/2 {
		width = minWidth / 2
	}
	return wrap.String(wordwrap.String(text, width), width)
}

func separator(width int) string {
	return dimStyle.Render(strings.Repeat("─", width))
}

func orUnnamed(name string) string {
	if name == "" {
		return "(unnamed mission)"
	}
	return name
}
