package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mrdg/chordmaker/progression"
	"github.com/mrdg/chordmaker/session"
	"github.com/mrdg/chordmaker/theory"
)

const (
	barsPerRow = 8
	cellWidth  = 7
)

// view is what the grid shows for one frame.
type view struct {
	state   session.State
	playing int // bar being played, playback.Inactive when stopped
	color   bool
}

func renderGrid(w io.Writer, v view) {
	st := v.state
	tempo := progression.Tempo{BPM: st.BPM, BeatsPerBar: st.BeatsPerBar}
	fmt.Fprintf(w, "%s %s  ♩ = %v  %d bars of %d  %s  %s\n",
		st.Key, st.Mode, st.BPM, len(st.Progression), st.BeatsPerBar, st.Instrument,
		progression.FormatDuration(tempo.Duration(len(st.Progression), 1)))

	for row := 0; row < len(st.Progression); row += barsPerRow {
		end := min(row+barsPerRow, len(st.Progression))

		var numbers, chords, numerals string
		for i := row; i < end; i++ {
			numbers += pad(strconv.Itoa(i+1), cellWidth)

			slot := st.Progression[i]
			cell := pad(slot.String(), cellWidth)
			numeral := ""
			if !slot.Empty() {
				numeral = theory.Numeral(slot.Chord.Root, slot.Chord.Type, st.Key, st.Mode)
			}
			if v.color {
				switch {
				case slot.Empty():
				case numeral != "":
					cell = colorize(cell, colorGreen)
				default:
					cell = colorize(cell, colorYellow)
				}
				if i == v.playing {
					cell = reverse(cell)
				}
			} else if i == v.playing {
				cell = pad(">"+slot.String(), cellWidth)
			}
			chords += cell
			numerals += pad(numeral, cellWidth)
		}
		if v.color {
			numbers = colorize(numbers, colorMagenta)
		}
		fmt.Fprintln(w, strings.TrimRight(numbers, " "))
		fmt.Fprintln(w, strings.TrimRight(chords, " "))
		if strings.TrimSpace(numerals) != "" {
			fmt.Fprintln(w, strings.TrimRight(numerals, " "))
		}
	}
}

// pad fills s to width runes. Longer strings are cut with an ellipsis.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width-2]) + "… "
	}
	return s + strings.Repeat(" ", width-len(r))
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}

func reverse(text string) string {
	return "\033[7m" + text + "\033[0m"
}
