// Package domain models the IPEDS institution extract and its normalized form.
//
// # Data Source
//
// Rows originate from the National Center for Education Statistics IPEDS data
// center "custom data file" export for the 2020 collection year. The export is
// a comma-separated file with one header row and one row per institution. The
// header names are produced by the export tool and are not under our control:
// they carry the survey component prefix ("HD2020.", "ADM2020.", ...) and
// several irregularities that must be matched byte for byte:
//
//	"DRVEF2020.Total  enrollment"                      two spaces
//	"ADM2020.TOEFL (Test of English as a Foreign Language"   no closing paren
//	"institution name"                                 lower case, no prefix
//	"DRVIC2020.Total price for in-district students living on campus  2020-21"
//
// All external names live in [Columns]; [ExternalRecord] repeats them as csv
// struct tags, passed through [BindName] because csvutil treats a comma in a
// tag as the start of its options ("DRVGR2020.Graduation rate, total cohort").
// The tests compare the header csvutil derives from the struct against
// [Columns].
//
// # Value Conventions
//
// Empty cells mean "not reported". Optional integers decode to nil, never 0.
//
// Open admission policy ("IC2020.Open admission policy"):
//
//	"Yes" -> true, "No" -> false, "Not applicable" or empty -> nil (unknown).
//	Any other literal is rejected with an [InvalidLiteralError].
//
// Admissions considerations ("ADM2020.*" factor columns):
//
//	empty                               -> Unspecified
//	"Required"                          -> Required
//	"Recommended"                       -> Recommended
//	"Considered but not required"       -> Considered
//	"Neither required nor recommended"  -> NotRecommended
//	anything else                       -> NotRecommended
//
// Only the last row is a fallback. [ConsiderationFallbacks] reports those
// literals so they can be audited against the real export instead of being
// silently reclassified.
//
// # Storage Encoding
//
// Consideration levels are stored as their small integer value (0-4). The
// tri-state open admission flag is stored as 1, 0, or NULL.
package domain
