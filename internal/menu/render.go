package menu

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/danieljhkim/macsetup/internal/backup"
	"github.com/danieljhkim/macsetup/internal/catalog"
)

const cursorMarker = "▶"

func (c *Controller) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (c *Controller) renderHeader() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, titleColor.Sprint("Mac Setup Configuration Manager"))
	fmt.Fprintln(c.out, dimColor.Sprint("Select and deploy development environment configurations"))
	fmt.Fprintln(c.out)
}

func (c *Controller) render() {
	c.renderHeader()
	switch c.state {
	case StateMain:
		c.renderMain()
	case StateCategory:
		c.renderCategory()
	case StateBackup:
		c.renderBackups()
	}
}

func (c *Controller) renderMain() {
	t := c.newTable()
	t.SetTitle("Configuration Categories")
	t.AppendHeader(table.Row{"", "Category", "Configs", "Installed"})
	for i, cat := range c.registry.Categories() {
		marker := ""
		if i == c.catIdx {
			marker = cursorMarker
		}
		t.AppendRow(table.Row{
			marker,
			cat.Title(),
			len(cat.Items),
			successColor.Sprintf("%d/%d", cat.InstalledCount(), len(cat.Items)),
		})
	}
	t.Render()

	fmt.Fprintln(c.out, "\nNavigation: k/up Up | j/down Down | l/enter Select | q Quit")
	fmt.Fprintln(c.out, "Actions: a Select All | n Select None | d Deploy Selected | b Backup/Restore")
}

func (c *Controller) renderCategory() {
	cat := c.currentCategory()
	if cat == nil {
		return
	}
	fmt.Fprintf(c.out, "%s Configurations\n", boldColor.Sprint(cat.Title()))

	t := c.newTable()
	t.AppendHeader(table.Row{"", "", "Configuration", "Status", "Description"})
	for i, item := range cat.Items {
		marker := ""
		if i == c.itemIdx {
			marker = cursorMarker
		}
		t.AppendRow(table.Row{marker, checkbox(item.Selected()), item.Name, installedLabel(item), item.Description})
	}
	t.Render()

	if item := c.currentItem(); item != nil {
		requires := "None"
		if len(item.Requires) > 0 {
			requires = strings.Join(item.Requires, ", ")
		}
		fmt.Fprintf(c.out, "\n%s\n", infoColor.Sprint(item.Name))
		fmt.Fprintf(c.out, "  Source: %s\n", item.Source)
		fmt.Fprintf(c.out, "  Destination: %s\n", item.Dest)
		fmt.Fprintf(c.out, "  Requires: %s\n", requires)
	}

	fmt.Fprintln(c.out, "\nNavigation: k/up Up | j/down Down | space/t Toggle | h/enter Back")
	fmt.Fprintln(c.out, "Actions: a Select All | n None | d Deploy | c Check Requirements")
}

func (c *Controller) renderBackups() {
	fmt.Fprintln(c.out, boldColor.Sprint("Backup Management"))
	fmt.Fprintln(c.out)

	entries, err := c.engine.Backups().Recent(recentBackups)
	if err != nil {
		fmt.Fprintln(c.out, errorColor.Sprintf("Cannot list backups: %v", err))
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, dimColor.Sprint("No backups found"))
	} else {
		t := c.newTable()
		t.SetTitle("Recent Backups")
		t.AppendHeader(table.Row{"#", "File", "Date", "Size"})
		for i, e := range entries {
			t.AppendRow(table.Row{i + 1, e.Name, e.ModTime.Format("2006-01-02 15:04"), formatSize(e)})
		}
		t.Render()
	}

	fmt.Fprintln(c.out, "\nOptions:")
	fmt.Fprintln(c.out, "1. Create backup of all installed configs")
	fmt.Fprintln(c.out, "2. Restore specific backup")
	fmt.Fprintln(c.out, "3. Clean old backups")
	fmt.Fprintln(c.out, "4. Back to main menu")
}

func checkbox(selected bool) string {
	if selected {
		return "☑"
	}
	return "☐"
}

func installedLabel(item *catalog.Item) string {
	if item.Installed() {
		return successColor.Sprint("Installed")
	}
	return dimColor.Sprint("Not installed")
}

func formatSize(e backup.Entry) string {
	if e.Size > 1024 {
		return fmt.Sprintf("%.1f KB", float64(e.Size)/1024)
	}
	return fmt.Sprintf("%d B", e.Size)
}
