package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/bookstore/pkg/catalogapi"
	"github.com/nao1215/bookstore/pkg/event"
	"github.com/olekukonko/tablewriter"
)

// renderTable はヘッダーと行をテーブル形式でwに出力する。
func renderTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	table.AppendBulk(rows)
	table.Render()
}

// renderFields は項目名と値の組を2列のテーブルで出力する。
func renderFields(w io.Writer, fields [][2]string) {
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{f[0], f[1]})
	}
	renderTable(w, []string{"Field", "Value"}, rows)
}

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func ids(vs []uint) string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, id(v))
	}
	return strings.Join(out, ", ")
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

// oneLine は改行を空白に置き換える。
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func renderBooks(w io.Writer, books []catalogapi.Book) {
	rows := make([][]string, 0, len(books))
	for _, b := range books {
		author := id(b.AuthorID)
		if b.Author != nil {
			author = b.Author.FullName()
		}
		rows = append(rows, []string{
			id(b.ID),
			oneLine(b.Title),
			author,
			date(b.PublishedDate),
			fmt.Sprintf("%.2f", b.Price),
			strings.Join(b.Genres, ", "),
		})
	}
	renderTable(w, []string{"ID", "Title", "Author", "Published", "Price", "Genres"}, rows)
}

func renderBook(w io.Writer, b *catalogapi.Book) {
	author := id(b.AuthorID)
	if b.Author != nil {
		author = fmt.Sprintf("%s (ID %d)", b.Author.FullName(), b.AuthorID)
	}
	fields := [][2]string{
		{"ID", id(b.ID)},
		{"Title", oneLine(b.Title)},
		{"Author", author},
		{"Published", date(b.PublishedDate)},
		{"Pages", strconv.FormatUint(uint64(b.Pages), 10)},
		{"Price", fmt.Sprintf("%.2f", b.Price)},
		{"ISBN", b.ISBN},
		{"Digital only", strconv.FormatBool(b.DigitalOnly)},
		{"Genres", strings.Join(b.Genres, ", ")},
		{"Description", oneLine(b.Description)},
	}
	if b.Cover != nil {
		fields = append(fields, [2]string{"Cover", fmt.Sprintf("ID %d: %s", b.Cover.ID, oneLine(b.Cover.DesignIdeas))})
	}
	renderFields(w, fields)
}

func renderAuthors(w io.Writer, authors []catalogapi.Author) {
	rows := make([][]string, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, []string{id(a.ID), a.FirstName, a.LastName})
	}
	renderTable(w, []string{"ID", "First name", "Last name"}, rows)
}

func renderAuthor(w io.Writer, a *catalogapi.Author) {
	titles := make([]string, 0, len(a.Books))
	for _, b := range a.Books {
		titles = append(titles, oneLine(b.Title))
	}
	renderFields(w, [][2]string{
		{"ID", id(a.ID)},
		{"Name", a.FullName()},
		{"Books", strings.Join(titles, ", ")},
	})
}

func renderArtists(w io.Writer, artists []catalogapi.Artist) {
	rows := make([][]string, 0, len(artists))
	for _, a := range artists {
		rows = append(rows, []string{id(a.ID), a.FirstName, a.LastName})
	}
	renderTable(w, []string{"ID", "First name", "Last name"}, rows)
}

func renderArtist(w io.Writer, a *catalogapi.Artist) {
	covers := make([]uint, 0, len(a.Covers))
	for _, c := range a.Covers {
		covers = append(covers, c.ID)
	}
	renderFields(w, [][2]string{
		{"ID", id(a.ID)},
		{"Name", a.FullName()},
		{"Covers", ids(covers)},
	})
}

func renderCovers(w io.Writer, covers []catalogapi.Cover) {
	rows := make([][]string, 0, len(covers))
	for _, c := range covers {
		rows = append(rows, []string{id(c.ID), id(c.BookID), oneLine(c.DesignIdeas), ids(c.ArtistIDs)})
	}
	renderTable(w, []string{"ID", "Book ID", "Design ideas", "Artist IDs"}, rows)
}

func renderEvents(w io.Writer, events []event.Event) {
	rows := make([][]string, 0, len(events))
	for i := range events {
		ev := &events[i]
		row := []string{
			ev.CreatedAt.Local().Format(time.DateTime),
			string(ev.EventType),
			fmt.Sprintf("%s#%s", ev.AggregateType, ev.AggregateID),
			strconv.FormatInt(ev.Version, 10),
		}
		data, err := event.DecodeData[event.ChangeData](ev)
		if err != nil {
			row = append(row, "-", "-", "-")
		} else {
			row = append(row, data.Username, strings.Join(data.Fields, ", "), oneLine(data.Summary))
		}
		rows = append(rows, row)
	}
	renderTable(w, []string{"Time", "Event", "Target", "Version", "User", "Fields", "Summary"}, rows)
}

// single は1件のエンティティを一覧と同じ形式で出力する関数に変換する。
func single[T any](render func(io.Writer, []T)) func(io.Writer, *T) {
	return func(w io.Writer, v *T) { render(w, []T{*v}) }
}
