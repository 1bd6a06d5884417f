package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Open admission policy literals.
const (
	literalYes           = "Yes"
	literalNo            = "No"
	literalNotApplicable = "Not applicable"
)

var errNotIntegral = errors.New("value has a fractional part")

// Normalize converts one external record into an Institution. It fails on the
// first missing required field, invalid open admission literal, or numeric
// value that cannot be coerced. It has no side effects.
func Normalize(rec ExternalRecord) (Institution, error) {
	var c coercer
	inst := Institution{
		Name:              c.requiredText(HeaderName, rec.Name),
		Aliases:           optionalText(rec.Aliases),
		StreetAddress:     c.requiredText(HeaderStreetAddress, rec.StreetAddress),
		City:              c.requiredText(HeaderCity, rec.City),
		State:             c.requiredText(HeaderState, rec.State),
		ZIPCode:           c.requiredText(HeaderZIPCode, rec.ZIPCode),
		Website:           c.requiredText(HeaderWebsite, rec.Website),
		AdmissionsWebsite: optionalText(rec.AdmissionsWebsite),
		Longitude:         c.requiredFloat(HeaderLongitude, rec.Longitude),
		Latitude:          c.requiredFloat(HeaderLatitude, rec.Latitude),

		TotalEnrollment:     c.optionalInt(HeaderTotalEnrollment, rec.TotalEnrollment),
		UndergradEnrollment: c.optionalInt(HeaderUndergradEnrollment, rec.UndergradEnrollment),
		StudentToFaculty:    c.optionalInt(HeaderStudentToFaculty, rec.StudentToFaculty),
		GraduationRate:      c.optionalInt(HeaderGraduationRate, rec.GraduationRate),

		OpenAdmission: c.triState(HeaderOpenAdmission, rec.OpenAdmission),

		ConsidersGPA:             ParseConsideration(rec.SecondarySchoolGPA),
		ConsidersClassRank:       ParseConsideration(rec.SecondarySchoolRank),
		ConsidersTranscript:      ParseConsideration(rec.SecondarySchoolRec),
		ConsidersRecommendations: ParseConsideration(rec.Recommendations),
		ConsidersTestScores:      ParseConsideration(rec.AdmissionTestScores),
		ConsidersTOEFL:           ParseConsideration(rec.TOEFL),

		TotalApplicants:         c.optionalInt(HeaderApplicantsTotal, rec.ApplicantsTotal),
		TotalAdmissions:         c.optionalInt(HeaderAdmissionsTotal, rec.AdmissionsTotal),
		TotalEnrolledApplicants: c.optionalInt(HeaderEnrolledTotal, rec.EnrolledTotal),
		AdmissionsYield:         c.optionalInt(HeaderAdmissionsYield, rec.AdmissionsYield),
		SubmittedSAT:            c.optionalInt(HeaderSubmittedSAT, rec.SubmittedSAT),
		SubmittedACT:            c.optionalInt(HeaderSubmittedACT, rec.SubmittedACT),
		SATEnglish1Q:            c.optionalInt(HeaderSATEnglish25, rec.SATEnglish25),
		SATEnglish3Q:            c.optionalInt(HeaderSATEnglish75, rec.SATEnglish75),
		SATMath1Q:               c.optionalInt(HeaderSATMath25, rec.SATMath25),
		SATMath3Q:               c.optionalInt(HeaderSATMath75, rec.SATMath75),
		ACTComposite1Q:          c.optionalInt(HeaderACTComposite25, rec.ACTComposite25),
		ACTComposite3Q:          c.optionalInt(HeaderACTComposite75, rec.ACTComposite75),
		ACTEnglish1Q:            c.optionalInt(HeaderACTEnglish25, rec.ACTEnglish25),
		ACTEnglish3Q:            c.optionalInt(HeaderACTEnglish75, rec.ACTEnglish75),
		ACTMath1Q:               c.optionalInt(HeaderACTMath25, rec.ACTMath25),
		ACTMath3Q:               c.optionalInt(HeaderACTMath75, rec.ACTMath75),
		ApplicationFee:          c.optionalInt(HeaderApplicationFee, rec.ApplicationFee),
		PriceInDistrict:         c.optionalInt(HeaderPriceInDistrict, rec.PriceInDistrict),
		PriceInState:            c.optionalInt(HeaderPriceInState, rec.PriceInState),
		PriceOutOfState:         c.optionalInt(HeaderPriceOutOfState, rec.PriceOutOfState),
	}
	if c.err != nil {
		return Institution{}, c.err
	}
	return inst, nil
}

// ParseTriState maps the open admission literal set to true, false, or nil.
// Values outside {"Yes", "No", "Not applicable"} are rejected.
func ParseTriState(field string, raw *string) (*bool, error) {
	s, ok := present(raw)
	if !ok {
		return nil, nil
	}
	switch s {
	case literalYes:
		v := true
		return &v, nil
	case literalNo:
		v := false
		return &v, nil
	case literalNotApplicable:
		return nil, nil
	default:
		return nil, &InvalidLiteralError{Field: field, Value: s}
	}
}

// ConsiderationFallbacks returns the headers of consideration columns whose
// present value was not a recognized literal and was folded into
// NotRecommended.
func ConsiderationFallbacks(rec ExternalRecord) []string {
	fields := []struct {
		header string
		value  *string
	}{
		{HeaderSecondarySchoolGPA, rec.SecondarySchoolGPA},
		{HeaderSecondarySchoolRank, rec.SecondarySchoolRank},
		{HeaderSecondarySchoolRec, rec.SecondarySchoolRec},
		{HeaderRecommendations, rec.Recommendations},
		{HeaderAdmissionTestScores, rec.AdmissionTestScores},
		{HeaderTOEFL, rec.TOEFL},
	}
	var out []string
	for _, f := range fields {
		if _, known := classifyConsideration(f.value); !known {
			out = append(out, f.header)
		}
	}
	return out
}

// coercer keeps the first conversion error so Normalize can build the whole
// struct in one literal.
type coercer struct {
	err error
}

func (c *coercer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *coercer) requiredText(field string, raw *string) string {
	s, ok := present(raw)
	if !ok {
		c.fail(&MissingFieldError{Field: field})
		return ""
	}
	return s
}

func (c *coercer) requiredFloat(field string, raw *string) float64 {
	s, ok := present(raw)
	if !ok {
		c.fail(&MissingFieldError{Field: field})
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.fail(&CoercionError{Field: field, Value: s, Err: err})
		return 0
	}
	return v
}

func (c *coercer) optionalInt(field string, raw *string) *int64 {
	s, ok := present(raw)
	if !ok {
		return nil
	}
	v, err := parseInt(s)
	if err != nil {
		c.fail(&CoercionError{Field: field, Value: s, Err: err})
		return nil
	}
	return &v
}

func (c *coercer) triState(field string, raw *string) *bool {
	v, err := ParseTriState(field, raw)
	if err != nil {
		c.fail(err)
	}
	return v
}

// parseInt accepts plain integers and integral decimals such as "42.0",
// which spreadsheet round trips of the export produce.
func parseInt(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, errNotIntegral
	}
	return int64(f), nil
}

func optionalText(raw *string) *string {
	s, ok := present(raw)
	if !ok {
		return nil
	}
	return &s
}

// present returns the trimmed value and whether it counts as reported.
func present(raw *string) (string, bool) {
	if raw == nil {
		return "", false
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return "", false
	}
	return s, true
}
