package entries

import (
	"fmt"
	"html"
	"strings"
)

// daytypeOrder fixes the selector ordering across renders.
var daytypeOrder = []Daytype{
	DaytypeWorkday, DaytypeSick, DaytypeHoliday, DaytypePaidUnworked,
	DaytypePaidWorked, DaytypeSpecial, DaytypeTraining, DaytypeDayOnDemand,
	DaytypeWorkHome, DaytypeReturn, DaytypePending, DaytypeLinked,
}

// RenderForms renders the paired add/change forms fragment. Both forms
// POST to /ajax/; the submit buttons set form_type and the change form
// carries the hidden entry id.
func RenderForms(f *CalendarForms, csrfToken string) string {
	var b strings.Builder
	b.WriteString(`<div id="entry-forms">`)
	writeEntryForm(&b, "add", &f.Add, csrfToken)
	writeEntryForm(&b, "change", &f.Change, csrfToken)
	b.WriteString(`</div>`)
	return b.String()
}

// writeEntryForm renders one entry form with the given field-id prefix.
func writeEntryForm(b *strings.Builder, prefix string, form *EntryForm, csrfToken string) {
	fmt.Fprintf(b, `<form id="%s_form" class="entry-form" method="post" action="/ajax/">`, prefix)
	fmt.Fprintf(b, `<input type="hidden" name="csrf_token" value="%s">`, html.EscapeString(csrfToken))
	fmt.Fprintf(b, `<input type="hidden" name="form_type" value="%s">`, prefix)

	if prefix == "change" {
		fmt.Fprintf(b, `<input type="hidden" id="hidden-id" name="hidden-id" value="%s">`,
			html.EscapeString(form.HiddenID))
	}

	fmt.Fprintf(b, `<input type="text" id="%s_entrydate" name="entry_date" value="%s">`,
		prefix, html.EscapeString(form.EntryDate))

	writeTimeInput(b, prefix+"_starttime", "start_time", &form.StartTime)
	writeTimeInput(b, prefix+"_endtime", "end_time", &form.EndTime)

	fmt.Fprintf(b, `<input type="text" id="%s_breaks" name="breaks" value="%s">`,
		prefix, html.EscapeString(form.Breaks))

	fmt.Fprintf(b, `<select id="%s_daytype" name="daytype">`, prefix)
	for _, d := range daytypeOrder {
		selected := ""
		if d == form.Daytype {
			selected = " selected"
		}
		fmt.Fprintf(b, `<option value="%s"%s>%s</option>`,
			string(d), selected, html.EscapeString(d.DisplayName()))
	}
	b.WriteString(`</select>`)

	label := "Add"
	if prefix == "change" {
		label = "Change"
	}
	fmt.Fprintf(b, `<button type="submit">%s</button>`, label)
	if prefix == "change" {
		fmt.Fprintf(b, `<a class="delete-entry" href="/calendar/forms/delete?id=%s">Delete</a>`,
			html.EscapeString(form.HiddenID))
	}

	b.WriteString(`</form>`)
}

// writeTimeInput renders a picker-backed time input, carrying the picker
// seed in data attributes so the page script can rebuild the widget.
func writeTimeInput(b *strings.Builder, id, name string, field *TimeField) {
	disabled := ""
	if !field.Enabled {
		disabled = " disabled"
	}
	fmt.Fprintf(b,
		`<input type="text" id="%s" name="%s" value="%s" data-hour="%d" data-minute="%d"%s>`,
		id, name, html.EscapeString(field.Value), field.Seed.Hour, field.Seed.Minute, disabled)
}

// RenderDeleteConfirm renders the delete confirmation fragment. Confirm
// submits the delete through the change form's fields; cancel reloads the
// unchanged forms fragment.
func RenderDeleteConfirm(f *CalendarForms, csrfToken string) string {
	var b strings.Builder
	b.WriteString(`<div id="entry-forms" class="confirm-delete">`)
	fmt.Fprintf(&b, `<p>Delete the entry for %s?</p>`, html.EscapeString(f.Change.EntryDate))

	b.WriteString(`<form method="post" action="/ajax/">`)
	fmt.Fprintf(&b, `<input type="hidden" name="csrf_token" value="%s">`, html.EscapeString(csrfToken))
	b.WriteString(`<input type="hidden" name="form_type" value="delete">`)
	fmt.Fprintf(&b, `<input type="hidden" name="hidden-id" value="%s">`, html.EscapeString(f.Change.HiddenID))
	fmt.Fprintf(&b, `<input type="hidden" name="entry_date" value="%s">`, html.EscapeString(f.Change.EntryDate))
	fmt.Fprintf(&b, `<input type="hidden" name="start_time" value="%s">`, html.EscapeString(f.Change.StartTime.Value))
	fmt.Fprintf(&b, `<input type="hidden" name="end_time" value="%s">`, html.EscapeString(f.Change.EndTime.Value))
	fmt.Fprintf(&b, `<input type="hidden" name="daytype" value="%s">`, string(f.Change.Daytype))
	b.WriteString(`<button type="submit">Confirm</button>`)
	b.WriteString(`</form>`)

	b.WriteString(`<a class="cancel-delete" href="/calendar/forms/clear">Cancel</a>`)
	b.WriteString(`</div>`)
	return b.String()
}
