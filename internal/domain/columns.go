package domain

import "strings"

// External header names as they appear in the IPEDS export.
const (
	HeaderName                 = "institution name"
	HeaderAliases              = "HD2020.Institution name alias"
	HeaderStreetAddress        = "HD2020.Street address or post office box"
	HeaderCity                 = "HD2020.City location of institution"
	HeaderState                = "HD2020.State abbreviation"
	HeaderZIPCode              = "HD2020.ZIP code"
	HeaderWebsite              = "HD2020.Institution's internet website address"
	HeaderAdmissionsWebsite    = "HD2020.Admissions office web address"
	HeaderLongitude            = "HD2020.Longitude location of institution"
	HeaderLatitude             = "HD2020.Latitude location of institution"
	HeaderTotalEnrollment      = "DRVEF2020.Total  enrollment"
	HeaderUndergradEnrollment  = "DRVEF2020.Undergraduate enrollment"
	HeaderStudentToFaculty     = "EF2020D.Student-to-faculty ratio"
	HeaderGraduationRate       = "DRVGR2020.Graduation rate, total cohort"
	HeaderOpenAdmission        = "IC2020.Open admission policy"
	HeaderSecondarySchoolGPA   = "ADM2020.Secondary school GPA"
	HeaderSecondarySchoolRank  = "ADM2020.Secondary school rank"
	HeaderSecondarySchoolRec   = "ADM2020.Secondary school record"
	HeaderRecommendations      = "ADM2020.Recommendations"
	HeaderAdmissionTestScores  = "ADM2020.Admission test scores"
	HeaderTOEFL                = "ADM2020.TOEFL (Test of English as a Foreign Language"
	HeaderApplicantsTotal      = "ADM2020.Applicants total"
	HeaderAdmissionsTotal      = "ADM2020.Admissions total"
	HeaderEnrolledTotal        = "ADM2020.Enrolled total"
	HeaderAdmissionsYield      = "DRVADM2020.Admissions yield - total"
	HeaderSubmittedSAT         = "ADM2020.Percent of first-time degree/certificate-seeking students submitting SAT scores"
	HeaderSubmittedACT         = "ADM2020.Percent of first-time degree/certificate-seeking students submitting ACT scores"
	HeaderSATEnglish25         = "ADM2020.SAT Evidence-Based Reading and Writing 25th percentile score"
	HeaderSATEnglish75         = "ADM2020.SAT Evidence-Based Reading and Writing 75th percentile score"
	HeaderSATMath25            = "ADM2020.SAT Math 25th percentile score"
	HeaderSATMath75            = "ADM2020.SAT Math 75th percentile score"
	HeaderACTComposite25       = "ADM2020.ACT Composite 25th percentile score"
	HeaderACTComposite75       = "ADM2020.ACT Composite 75th percentile score"
	HeaderACTEnglish25         = "ADM2020.ACT English 25th percentile score"
	HeaderACTEnglish75         = "ADM2020.ACT English 75th percentile score"
	HeaderACTMath25            = "ADM2020.ACT Math 25th percentile score"
	HeaderACTMath75            = "ADM2020.ACT Math 75th percentile score"
	HeaderApplicationFee       = "IC2020.Undergraduate application fee"
	HeaderPriceInDistrict      = "DRVIC2020.Total price for in-district students living on campus  2020-21"
	HeaderPriceInState         = "DRVIC2020.Total price for in-state students living on campus 2020-21"
	HeaderPriceOutOfState      = "DRVIC2020.Total price for out-of-state students living on campus 2020-21"
)

// ColumnKind describes how an external value is coerced.
type ColumnKind int

const (
	KindRequiredText ColumnKind = iota
	KindOptionalText
	KindRequiredFloat
	KindOptionalInt
	KindTriState
	KindConsideration
)

func (k ColumnKind) String() string {
	switch k {
	case KindRequiredText:
		return "required text"
	case KindOptionalText:
		return "optional text"
	case KindRequiredFloat:
		return "required float"
	case KindOptionalInt:
		return "optional integer"
	case KindTriState:
		return "tri-state boolean"
	case KindConsideration:
		return "consideration level"
	default:
		return "unknown"
	}
}

// Column binds one external header to one internal attribute.
type Column struct {
	External string
	Internal string
	Kind     ColumnKind
}

// Columns is the fixed external -> internal mapping, in storage column order.
// Review against the export header (`ipeds-etl validate`) before loading a new
// collection year.
var Columns = []Column{
	{HeaderName, "name", KindRequiredText},
	{HeaderAliases, "aliases", KindOptionalText},
	{HeaderStreetAddress, "street_address", KindRequiredText},
	{HeaderCity, "city", KindRequiredText},
	{HeaderState, "state", KindRequiredText},
	{HeaderZIPCode, "zip_code", KindRequiredText},
	{HeaderWebsite, "website", KindRequiredText},
	{HeaderAdmissionsWebsite, "admissions_website", KindOptionalText},
	{HeaderLongitude, "longitude", KindRequiredFloat},
	{HeaderLatitude, "latitude", KindRequiredFloat},
	{HeaderTotalEnrollment, "total_enrollment", KindOptionalInt},
	{HeaderUndergradEnrollment, "undergrad_enrollment", KindOptionalInt},
	{HeaderStudentToFaculty, "student_to_faculty", KindOptionalInt},
	{HeaderGraduationRate, "graduation_rate", KindOptionalInt},
	{HeaderOpenAdmission, "open_admission", KindTriState},
	{HeaderSecondarySchoolGPA, "considers_gpa", KindConsideration},
	{HeaderSecondarySchoolRank, "considers_class_rank", KindConsideration},
	{HeaderSecondarySchoolRec, "considers_transcript", KindConsideration},
	{HeaderRecommendations, "considers_recommendations", KindConsideration},
	{HeaderAdmissionTestScores, "considers_test_scores", KindConsideration},
	{HeaderTOEFL, "considers_toefl", KindConsideration},
	{HeaderApplicantsTotal, "total_applicants", KindOptionalInt},
	{HeaderAdmissionsTotal, "total_admissions", KindOptionalInt},
	{HeaderEnrolledTotal, "total_enrolled_applicants", KindOptionalInt},
	{HeaderAdmissionsYield, "admissions_yield", KindOptionalInt},
	{HeaderSubmittedSAT, "submitted_sat", KindOptionalInt},
	{HeaderSubmittedACT, "submitted_act", KindOptionalInt},
	{HeaderSATEnglish25, "sat_english_1q", KindOptionalInt},
	{HeaderSATEnglish75, "sat_english_3q", KindOptionalInt},
	{HeaderSATMath25, "sat_math_1q", KindOptionalInt},
	{HeaderSATMath75, "sat_math_3q", KindOptionalInt},
	{HeaderACTComposite25, "act_composite_1q", KindOptionalInt},
	{HeaderACTComposite75, "act_composite_3q", KindOptionalInt},
	{HeaderACTEnglish25, "act_english_1q", KindOptionalInt},
	{HeaderACTEnglish75, "act_english_3q", KindOptionalInt},
	{HeaderACTMath25, "act_math_1q", KindOptionalInt},
	{HeaderACTMath75, "act_math_3q", KindOptionalInt},
	{HeaderApplicationFee, "application_fee", KindOptionalInt},
	{HeaderPriceInDistrict, "price_in_district", KindOptionalInt},
	{HeaderPriceInState, "price_in_state", KindOptionalInt},
	{HeaderPriceOutOfState, "price_out_of_state", KindOptionalInt},
}

// ExpectedHeaders returns every external header in table order.
func ExpectedHeaders() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.External
	}
	return out
}

// InternalNames returns every internal attribute name in table order.
func InternalNames() []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		out[i] = c.Internal
	}
	return out
}

// HeaderReport is the result of comparing an export header against Columns.
type HeaderReport struct {
	// Missing lists expected headers absent from the file. Missing required
	// headers make every row fail; missing optional headers load as null.
	Missing []Column
	// Unrecognized lists file headers that no column maps.
	Unrecognized []string
}

// MissingRequired returns the subset of Missing whose kind is required.
func (r HeaderReport) MissingRequired() []Column {
	var out []Column
	for _, c := range r.Missing {
		if c.Kind == KindRequiredText || c.Kind == KindRequiredFloat {
			out = append(out, c)
		}
	}
	return out
}

// BindName returns the name a header is bound under when decoding. csvutil
// reads everything after the first comma of a csv tag as options, so commas
// in export headers are replaced with semicolons on both the tag and the
// header row handed to the decoder.
func BindName(external string) string {
	return strings.ReplaceAll(external, ",", ";")
}

// BindHeader maps a file header through BindName.
func BindHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = BindName(h)
	}
	return out
}

// CheckHeader compares a file header against Columns. Matching is exact.
func CheckHeader(header []string) HeaderReport {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	known := make(map[string]bool, len(Columns))

	var report HeaderReport
	for _, c := range Columns {
		known[c.External] = true
		if !seen[c.External] {
			report.Missing = append(report.Missing, c)
		}
	}
	for _, h := range header {
		if !known[h] {
			report.Unrecognized = append(report.Unrecognized, h)
		}
	}
	return report
}
