package domain

// ExternalRecord is one row of the IPEDS export bound by header name. Every
// field is a string pointer; nil or blank means the cell was absent. Tags hold
// BindName of the header, which differs from the header only where it
// contains a comma.
type ExternalRecord struct {
	Name                *string `csv:"institution name"`
	Aliases             *string `csv:"HD2020.Institution name alias"`
	StreetAddress       *string `csv:"HD2020.Street address or post office box"`
	City                *string `csv:"HD2020.City location of institution"`
	State               *string `csv:"HD2020.State abbreviation"`
	ZIPCode             *string `csv:"HD2020.ZIP code"`
	Website             *string `csv:"HD2020.Institution's internet website address"`
	AdmissionsWebsite   *string `csv:"HD2020.Admissions office web address"`
	Longitude           *string `csv:"HD2020.Longitude location of institution"`
	Latitude            *string `csv:"HD2020.Latitude location of institution"`
	TotalEnrollment     *string `csv:"DRVEF2020.Total  enrollment"`
	UndergradEnrollment *string `csv:"DRVEF2020.Undergraduate enrollment"`
	StudentToFaculty    *string `csv:"EF2020D.Student-to-faculty ratio"`
	GraduationRate      *string `csv:"DRVGR2020.Graduation rate; total cohort"`
	OpenAdmission       *string `csv:"IC2020.Open admission policy"`
	SecondarySchoolGPA  *string `csv:"ADM2020.Secondary school GPA"`
	SecondarySchoolRank *string `csv:"ADM2020.Secondary school rank"`
	SecondarySchoolRec  *string `csv:"ADM2020.Secondary school record"`
	Recommendations     *string `csv:"ADM2020.Recommendations"`
	AdmissionTestScores *string `csv:"ADM2020.Admission test scores"`
	TOEFL               *string `csv:"ADM2020.TOEFL (Test of English as a Foreign Language"`
	ApplicantsTotal     *string `csv:"ADM2020.Applicants total"`
	AdmissionsTotal     *string `csv:"ADM2020.Admissions total"`
	EnrolledTotal       *string `csv:"ADM2020.Enrolled total"`
	AdmissionsYield     *string `csv:"DRVADM2020.Admissions yield - total"`
	SubmittedSAT        *string `csv:"ADM2020.Percent of first-time degree/certificate-seeking students submitting SAT scores"`
	SubmittedACT        *string `csv:"ADM2020.Percent of first-time degree/certificate-seeking students submitting ACT scores"`
	SATEnglish25        *string `csv:"ADM2020.SAT Evidence-Based Reading and Writing 25th percentile score"`
	SATEnglish75        *string `csv:"ADM2020.SAT Evidence-Based Reading and Writing 75th percentile score"`
	SATMath25           *string `csv:"ADM2020.SAT Math 25th percentile score"`
	SATMath75           *string `csv:"ADM2020.SAT Math 75th percentile score"`
	ACTComposite25      *string `csv:"ADM2020.ACT Composite 25th percentile score"`
	ACTComposite75      *string `csv:"ADM2020.ACT Composite 75th percentile score"`
	ACTEnglish25        *string `csv:"ADM2020.ACT English 25th percentile score"`
	ACTEnglish75        *string `csv:"ADM2020.ACT English 75th percentile score"`
	ACTMath25           *string `csv:"ADM2020.ACT Math 25th percentile score"`
	ACTMath75           *string `csv:"ADM2020.ACT Math 75th percentile score"`
	ApplicationFee      *string `csv:"IC2020.Undergraduate application fee"`
	PriceInDistrict     *string `csv:"DRVIC2020.Total price for in-district students living on campus  2020-21"`
	PriceInState        *string `csv:"DRVIC2020.Total price for in-state students living on campus 2020-21"`
	PriceOutOfState     *string `csv:"DRVIC2020.Total price for out-of-state students living on campus 2020-21"`
}

// RawRecord is an extracted row before normalization.
type RawRecord struct {
	Row    int // 1-based data row, header excluded
	Record ExternalRecord
	Err    error // set when the row could not be decoded
}

// Institution is the normalized representation of one institution.
type Institution struct {
	Name              string  `json:"name" db:"name"`
	Aliases           *string `json:"aliases" db:"aliases"`
	StreetAddress     string  `json:"street_address" db:"street_address"`
	City              string  `json:"city" db:"city"`
	State             string  `json:"state" db:"state"`
	ZIPCode           string  `json:"zip_code" db:"zip_code"`
	Website           string  `json:"website" db:"website"`
	AdmissionsWebsite *string `json:"admissions_website" db:"admissions_website"`
	Longitude         float64 `json:"longitude" db:"longitude"`
	Latitude          float64 `json:"latitude" db:"latitude"`

	TotalEnrollment     *int64 `json:"total_enrollment" db:"total_enrollment"`
	UndergradEnrollment *int64 `json:"undergrad_enrollment" db:"undergrad_enrollment"`
	StudentToFaculty    *int64 `json:"student_to_faculty" db:"student_to_faculty"`
	GraduationRate      *int64 `json:"graduation_rate" db:"graduation_rate"`

	OpenAdmission *bool `json:"open_admission" db:"open_admission"`

	ConsidersGPA             Consideration `json:"considers_gpa" db:"considers_gpa"`
	ConsidersClassRank       Consideration `json:"considers_class_rank" db:"considers_class_rank"`
	ConsidersTranscript      Consideration `json:"considers_transcript" db:"considers_transcript"`
	ConsidersRecommendations Consideration `json:"considers_recommendations" db:"considers_recommendations"`
	ConsidersTestScores      Consideration `json:"considers_test_scores" db:"considers_test_scores"`
	ConsidersTOEFL           Consideration `json:"considers_toefl" db:"considers_toefl"`

	TotalApplicants         *int64 `json:"total_applicants" db:"total_applicants"`
	TotalAdmissions         *int64 `json:"total_admissions" db:"total_admissions"`
	TotalEnrolledApplicants *int64 `json:"total_enrolled_applicants" db:"total_enrolled_applicants"`
	AdmissionsYield         *int64 `json:"admissions_yield" db:"admissions_yield"`
	SubmittedSAT            *int64 `json:"submitted_sat" db:"submitted_sat"`
	SubmittedACT            *int64 `json:"submitted_act" db:"submitted_act"`
	SATEnglish1Q            *int64 `json:"sat_english_1q" db:"sat_english_1q"`
	SATEnglish3Q            *int64 `json:"sat_english_3q" db:"sat_english_3q"`
	SATMath1Q               *int64 `json:"sat_math_1q" db:"sat_math_1q"`
	SATMath3Q               *int64 `json:"sat_math_3q" db:"sat_math_3q"`
	ACTComposite1Q          *int64 `json:"act_composite_1q" db:"act_composite_1q"`
	ACTComposite3Q          *int64 `json:"act_composite_3q" db:"act_composite_3q"`
	ACTEnglish1Q            *int64 `json:"act_english_1q" db:"act_english_1q"`
	ACTEnglish3Q            *int64 `json:"act_english_3q" db:"act_english_3q"`
	ACTMath1Q               *int64 `json:"act_math_1q" db:"act_math_1q"`
	ACTMath3Q               *int64 `json:"act_math_3q" db:"act_math_3q"`
	ApplicationFee          *int64 `json:"application_fee" db:"application_fee"`
	PriceInDistrict         *int64 `json:"price_in_district" db:"price_in_district"`
	PriceInState            *int64 `json:"price_in_state" db:"price_in_state"`
	PriceOutOfState         *int64 `json:"price_out_of_state" db:"price_out_of_state"`
}

// Coordinates identifies a stored institution by id and location.
type Coordinates struct {
	ID        int64   `db:"id"`
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}
