package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// classStats accumulates the frames of one signal class.
type classStats struct {
	frames     int
	rdQ10      int64
	pulses     int
	absSum     int
	rewhitened int
	verified   int
	mismatched int
}

type summary struct {
	order   []string
	classes map[string]*classStats
}

func newSummary() *summary {
	return &summary{classes: make(map[string]*classStats)}
}

func (s *summary) add(rec frameRecord) {
	c, ok := s.classes[rec.Signal]
	if !ok {
		c = &classStats{}
		s.classes[rec.Signal] = c
		s.order = append(s.order, rec.Signal)
	}
	c.frames++
	c.rdQ10 += int64(rec.RDQ10)
	c.pulses += rec.Pulses
	c.absSum += rec.PulseAbsSum
	for _, sf := range rec.Subframes {
		if sf.Rewhitened {
			c.rewhitened++
		}
	}
	if rec.Verified != nil {
		if *rec.Verified {
			c.verified++
		} else {
			c.mismatched++
		}
	}
}

func (s *summary) rows() [][]string {
	rows := [][]string{{"signal", "frames", "mean rd", "pulses/frame", "|pulse|/frame", "rewhitened", "verified", "mismatched"}}
	total := &classStats{}
	add := func(name string, c *classStats) {
		rows = append(rows, []string{
			name,
			fmt.Sprint(c.frames),
			fmt.Sprintf("%.1f", float64(c.rdQ10)/float64(c.frames)/1024),
			fmt.Sprintf("%.1f", float64(c.pulses)/float64(c.frames)),
			fmt.Sprintf("%.1f", float64(c.absSum)/float64(c.frames)),
			fmt.Sprint(c.rewhitened),
			fmt.Sprint(c.verified),
			fmt.Sprint(c.mismatched),
		})
	}
	for _, name := range s.order {
		c := s.classes[name]
		add(name, c)
		total.frames += c.frames
		total.rdQ10 += c.rdQ10
		total.pulses += c.pulses
		total.absSum += c.absSum
		total.rewhitened += c.rewhitened
		total.verified += c.verified
		total.mismatched += c.mismatched
	}
	if total.frames > 0 {
		add("total", total)
	}
	return rows
}

// write prints the summary as a table whose columns line up by display width.
func (s *summary) write(w io.Writer, quantizer, kernel string) {
	fmt.Fprintf(w, "quantizer: %s  prediction kernel: %s\n", quantizer, kernel)
	rows := s.rows()
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	var sb strings.Builder
	for r, row := range rows {
		sb.Reset()
		for i, cell := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			if i == 0 {
				sb.WriteString(runewidth.FillRight(cell, widths[i]))
			} else {
				sb.WriteString(runewidth.FillLeft(cell, widths[i]))
			}
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
		if r == 0 {
			total := 2 * (len(widths) - 1)
			for _, wd := range widths {
				total += wd
			}
			fmt.Fprintln(w, strings.Repeat("-", total))
		}
	}
}
