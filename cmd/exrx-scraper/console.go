package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sriram-PR/exrx-scraper/pkg/progress"
)

var (
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// console narrates the pipeline stages on stdout, implementing orchestrate.Reporter
type console struct {
	out     io.Writer
	spinner *progress.Spinner
}

func newConsole(out io.Writer) *console {
	return &console{out: out, spinner: progress.NewSpinner(out)}
}

// Begin shows the spinner while the directory page is fetched
func (c *console) Begin() {
	c.spinner.Status("Discovering muscle groups...")
}

func (c *console) CategoriesFound(n int) {
	c.spinner.Stop()
	fmt.Fprintln(c.out, noteStyle.Render("Found ")+countStyle.Render(strconv.Itoa(n))+noteStyle.Render(" muscle groups, getting exercise links..."))
	c.spinner.Status("Harvesting exercise links...")
}

func (c *console) ExercisesFound(n int) {
	c.spinner.Stop()
	fmt.Fprintln(c.out, noteStyle.Render("Total of ")+countStyle.Render(strconv.Itoa(n))+noteStyle.Render(" free exercises found."))
}

func (c *console) Saving(path string) {
	fmt.Fprintln(c.out, noteStyle.Render("Saving data to "+path+"..."))
}

func (c *console) Done() {
	fmt.Fprintln(c.out, doneStyle.Render("Done!"))
}

func (c *console) Failed(err error) {
	c.spinner.Stop()
	fmt.Fprintln(c.out, errorStyle.Render("Aborted: "+err.Error()))
}
