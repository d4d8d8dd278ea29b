package classroom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/garyellow/attendance-go/internal/attendance"
	domerrors "github.com/garyellow/attendance-go/internal/errors"
	"github.com/garyellow/attendance-go/internal/stringutil"
)

// File is the on-disk YAML layout of a classroom.
//
//	roster: ["01 김가령", "02 이서연"]
//	periods: ["1차시", "2차시"]
//	recurring_reason: 정기결석
//	recurring_absences:
//	  "01 김가령":
//	    - weekdays: [수요일]
//	      all_periods: true
//	    - weekdays: [월]
//	      periods: ["2차시"]
type File struct {
	Roster            []string                  `yaml:"roster" validate:"required,min=1,unique,dive,required"`
	Periods           []string                  `yaml:"periods" validate:"required,min=1,unique,dive,required"`
	RecurringReason   string                    `yaml:"recurring_reason" validate:"omitempty,max=64"`
	RecurringAbsences map[string][]AbsenceEntry `yaml:"recurring_absences"`
}

// AbsenceEntry is one recurring absence of a student. Exactly one of
// AllPeriods, Period and Periods selects the periods.
type AbsenceEntry struct {
	Weekdays   []string `yaml:"weekdays" validate:"required,min=1,dive,required"`
	AllPeriods bool     `yaml:"all_periods"`
	Period     string   `yaml:"period"`
	Periods    []string `yaml:"periods" validate:"omitempty,unique,dive,required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a classroom file.
func Load(path string) (*Classroom, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classroom file: %w", err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("classroom file %s: %w", path, err)
	}
	return c, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist.
// The boolean reports whether the fallback was used.
func LoadOrDefault(path string) (*Classroom, bool, error) {
	if path == "" {
		return Default(), true, nil
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// Parse decodes a classroom YAML document. Unknown fields and duplicate
// mapping keys (e.g. a student listed twice under recurring_absences) are errors.
func Parse(r io.Reader) (*Classroom, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domerrors.NewValidationError("classroom", "empty document")
		}
		if strings.Contains(err.Error(), "already defined") {
			return nil, fmt.Errorf("%w: %w", domerrors.ErrDuplicateStudent, err)
		}
		return nil, fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err)
	}
	return f.Build()
}

// Build normalizes names, validates the file and builds the rule set.
// All problems found are returned together.
func (f *File) Build() (*Classroom, error) {
	roster := normalizeAll(f.Roster)
	periods := trimAll(f.Periods)

	normalized := File{Roster: roster, Periods: periods, RecurringReason: strings.TrimSpace(f.RecurringReason)}
	if err := validate.Struct(normalized); err != nil {
		return nil, validationErrors(err)
	}

	c := &Classroom{
		Roster:  roster,
		Periods: periods,
		Rules:   attendance.NewRuleSet(normalized.RecurringReason),
	}

	entries := make(map[string][]AbsenceEntry, len(f.RecurringAbsences))
	var errs []error
	for raw, list := range f.RecurringAbsences {
		name := stringutil.NormalizeName(raw)
		if _, dup := entries[name]; dup {
			errs = append(errs, fmt.Errorf("recurring_absences: %w %q", domerrors.ErrDuplicateStudent, name))
			continue
		}
		entries[name] = list
		if !c.HasStudent(name) {
			errs = append(errs, domerrors.NewValidationError("recurring_absences", fmt.Sprintf("student %q is not on the roster", name)))
		}
	}

	// Roster order keeps rule iteration deterministic.
	for _, student := range roster {
		list, ok := entries[student]
		if !ok {
			continue
		}
		rules, err := c.rulesFor(student, list)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := c.Rules.Add(student, rules...); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Classroom) rulesFor(student string, list []AbsenceEntry) ([]attendance.Rule, error) {
	var rules []attendance.Rule
	var errs []error
	for i, e := range list {
		field := fmt.Sprintf("recurring_absences[%s][%d]", student, i)
		if err := validate.Struct(e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, validationErrors(err)))
			continue
		}

		var days attendance.WeekdaySet
		for _, name := range e.Weekdays {
			d, err := attendance.ParseWeekday(name)
			if err != nil {
				errs = append(errs, domerrors.NewValidationError(field, err.Error()))
				continue
			}
			days = days.With(d)
		}

		selectors := 0
		if e.AllPeriods {
			selectors++
		}
		if strings.TrimSpace(e.Period) != "" {
			selectors++
		}
		if len(e.Periods) > 0 {
			selectors++
		}
		if selectors != 1 {
			errs = append(errs, domerrors.NewValidationError(field, "set exactly one of all_periods, period, periods"))
			continue
		}

		if e.AllPeriods {
			rules = append(rules, attendance.Rule{Scope: attendance.AllPeriods(), Weekdays: days})
			continue
		}
		labels := e.Periods
		if len(labels) == 0 {
			labels = []string{e.Period}
		}
		for _, label := range trimAll(labels) {
			if !c.HasPeriod(label) {
				errs = append(errs, domerrors.NewValidationError(field, fmt.Sprintf("unknown period %q", label)))
				continue
			}
			rules = append(rules, attendance.Rule{Scope: attendance.SpecificPeriod(label), Weekdays: days})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

// validationErrors converts validator failures into domain validation errors.
func validationErrors(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %w", domerrors.ErrInvalidInput, err)
	}
	errs := make([]error, 0, len(ve))
	for _, fe := range ve {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		errs = append(errs, domerrors.NewValidationError(strings.ToLower(fe.Namespace()), "failed "+msg))
	}
	return errors.Join(errs...)
}

func normalizeAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = stringutil.NormalizeName(n)
	}
	return out
}

func trimAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.TrimSpace(l)
	}
	return out
}
