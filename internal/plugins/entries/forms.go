package entries

import (
	"fmt"
	"net/url"
)

// FormType discriminates which operation a submission performs.
type FormType int

const (
	FormAdd FormType = iota
	FormChange
	FormDelete
)

// formTypeNames maps form types to their wire values.
var formTypeNames = map[FormType]string{
	FormAdd:    "add",
	FormChange: "change",
	FormDelete: "delete",
}

// String returns the wire value for the form type.
func (t FormType) String() string {
	if name, ok := formTypeNames[t]; ok {
		return name
	}
	return "add"
}

// ParseFormType converts a wire value back into a FormType.
func ParseFormType(s string) (FormType, error) {
	for t, name := range formTypeNames {
		if name == s {
			return t, nil
		}
	}
	return FormAdd, fmt.Errorf("unknown form type %q", s)
}

// TimeField is a time input bound to a picker widget. Value is the HH:MM
// text; Seed is the hour/minute state the picker is initialized with,
// kept separately because the widget does not follow the text value.
type TimeField struct {
	Value   string
	Enabled bool
	Seed    Clock
}

// set updates both the text and the picker seed.
func (f *TimeField) set(value string, seed Clock) {
	f.Value = value
	f.Seed = seed
}

// clear empties the text and resets the picker seed.
func (f *TimeField) clear() {
	f.Value = ""
	f.Seed = Clock{}
}

// EntryForm is the view-model of one entry form (add or change).
type EntryForm struct {
	EntryDate string
	Daytype   Daytype
	HiddenID  string
	StartTime TimeField
	EndTime   TimeField
	Breaks    string
}

// SetDaytype applies the day-type rule to the form's time fields: timeless
// day types force the sentinel pair and disable the inputs, anything else
// clears them for fresh input.
func (f *EntryForm) SetDaytype(d Daytype) {
	f.Daytype = d
	if d.Timeless() {
		f.StartTime.set(SentinelStart, Clock{})
		f.EndTime.set(SentinelEnd, Clock{Minute: 1})
		f.StartTime.Enabled = false
		f.EndTime.Enabled = false
		return
	}
	f.StartTime.clear()
	f.EndTime.clear()
	f.StartTime.Enabled = true
	f.EndTime.Enabled = true
}

// reset returns the form to its initial state with the given enabled flag.
func (f *EntryForm) reset(enabled bool) {
	*f = EntryForm{}
	f.StartTime.Enabled = enabled
	f.EndTime.Enabled = enabled
}

// EntrySelection carries an existing entry into the change form. The
// decomposed hour/minute values seed the time pickers; the full strings
// populate the text inputs.
type EntrySelection struct {
	EntryID   int64
	Date      string
	Daytype   Daytype
	StartTime string
	EndTime   string
	Breaks    string
	Start     Clock
	End       Clock
}

// SelectionFromEntry decomposes an entry into a selection.
func SelectionFromEntry(e *Entry) (EntrySelection, error) {
	start, err := ParseClock(e.StartTime)
	if err != nil {
		return EntrySelection{}, fmt.Errorf("selecting entry %d: %w", e.ID, err)
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return EntrySelection{}, fmt.Errorf("selecting entry %d: %w", e.ID, err)
	}
	return EntrySelection{
		EntryID:   e.ID,
		Date:      e.EntryDate,
		Daytype:   e.Daytype,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Breaks:    e.Breaks,
		Start:     start,
		End:       end,
	}, nil
}

// CalendarForms is the paired add/change view-model behind the calendar.
// The change form's hidden id is the sole discriminator of which
// operation a submission performs.
type CalendarForms struct {
	Add    EntryForm
	Change EntryForm
}

// NewCalendarForms returns the initial Idle state: add-form time fields
// enabled, change-form fields disabled until an entry is selected.
func NewCalendarForms() *CalendarForms {
	f := &CalendarForms{}
	f.Add.reset(true)
	f.Change.reset(false)
	return f
}

// SelectEntry moves the forms to the SelectedForEdit state: the hidden id
// takes the entry's id, the add-form date is cleared so there is no
// ambiguity about which form will submit, and the change-form fields are
// re-enabled and reseeded from the selection.
func (f *CalendarForms) SelectEntry(sel EntrySelection) {
	f.Add.EntryDate = ""

	f.Change.HiddenID = fmt.Sprintf("%d", sel.EntryID)
	f.Change.EntryDate = sel.Date
	f.Change.Daytype = sel.Daytype
	f.Change.Breaks = sel.Breaks
	f.Change.StartTime.set(sel.StartTime, sel.Start)
	f.Change.EndTime.set(sel.EndTime, sel.End)
	f.Change.StartTime.Enabled = !sel.Daytype.Timeless()
	f.Change.EndTime.Enabled = !sel.Daytype.Timeless()
}

// SelectEmptyCell moves the forms to the SelectedForAdd state: the
// add-form date takes the clicked day and every change-form field and
// add-form time field is cleared so stale state cannot leak into the add.
func (f *CalendarForms) SelectEmptyCell(date string) {
	f.Change.reset(false)
	f.Add.StartTime.clear()
	f.Add.EndTime.clear()
	f.Add.Breaks = ""
	f.Add.EntryDate = date
}

// Reset returns both forms to the Idle state.
func (f *CalendarForms) Reset() {
	f.Add.reset(true)
	f.Change.reset(false)
}

// Submission is the payload POSTed to /ajax/.
type Submission struct {
	FormType  FormType
	EntryDate string
	StartTime string
	EndTime   string
	Breaks    string
	Daytype   Daytype
	HiddenID  string
}

// Payload builds the submission for the given mode. Add reads the add
// form; change and delete both read the change form, since the delete
// target is whatever entry currently occupies it.
func (f *CalendarForms) Payload(t FormType) Submission {
	src := &f.Add
	if t == FormChange || t == FormDelete {
		src = &f.Change
	}
	return Submission{
		FormType:  t,
		EntryDate: src.EntryDate,
		StartTime: src.StartTime.Value,
		EndTime:   src.EndTime.Value,
		Breaks:    src.Breaks,
		Daytype:   src.Daytype,
		HiddenID:  src.HiddenID,
	}
}

// Values encodes the submission with its wire field names.
func (s Submission) Values() url.Values {
	return url.Values{
		"form_type":  {s.FormType.String()},
		"entry_date": {s.EntryDate},
		"start_time": {s.StartTime},
		"end_time":   {s.EndTime},
		"breaks":     {s.Breaks},
		"daytype":    {string(s.Daytype)},
		"hidden-id":  {s.HiddenID},
	}
}
