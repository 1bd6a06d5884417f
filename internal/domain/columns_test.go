package domain

import (
	"reflect"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structTags(t *testing.T, v any, key string) map[string]reflect.StructField {
	t.Helper()
	typ := reflect.TypeOf(v)
	out := make(map[string]reflect.StructField, typ.NumField())
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag := f.Tag.Get(key)
		require.NotEmpty(t, tag, "field %s has no %s tag", f.Name, key)
		_, dup := out[tag]
		require.False(t, dup, "duplicate %s tag %q", key, tag)
		out[tag] = f
	}
	return out
}

func TestColumns_MatchDecodedHeader(t *testing.T) {
	got, err := csvutil.Header(ExternalRecord{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, BindHeader(ExpectedHeaders()), got)
}

func TestBindName(t *testing.T) {
	assert.Equal(t, "DRVGR2020.Graduation rate; total cohort", BindName(HeaderGraduationRate))
	assert.Equal(t, HeaderTotalEnrollment, BindName(HeaderTotalEnrollment))

	for _, c := range Columns {
		assert.NotContains(t, BindName(c.External), ",", c.External)
	}
}

func TestColumns_MatchInstitutionTags(t *testing.T) {
	tags := structTags(t, Institution{}, "db")
	require.Len(t, Columns, len(tags))

	for _, c := range Columns {
		f, ok := tags[c.Internal]
		if !assert.True(t, ok, "no Institution field tagged %q", c.Internal) {
			continue
		}
		switch c.Kind {
		case KindRequiredText:
			assert.Equal(t, reflect.String, f.Type.Kind(), c.Internal)
		case KindOptionalText:
			assert.Equal(t, reflect.TypeOf((*string)(nil)), f.Type, c.Internal)
		case KindRequiredFloat:
			assert.Equal(t, reflect.Float64, f.Type.Kind(), c.Internal)
		case KindOptionalInt:
			assert.Equal(t, reflect.TypeOf((*int64)(nil)), f.Type, c.Internal)
		case KindTriState:
			assert.Equal(t, reflect.TypeOf((*bool)(nil)), f.Type, c.Internal)
		case KindConsideration:
			assert.Equal(t, reflect.TypeOf(ConsiderationUnspecified), f.Type, c.Internal)
		}
	}
}

func TestColumns_IrregularHeadersPreserved(t *testing.T) {
	headers := ExpectedHeaders()
	assert.Contains(t, headers, "DRVEF2020.Total  enrollment")
	assert.Contains(t, headers, "ADM2020.TOEFL (Test of English as a Foreign Language")
	assert.Contains(t, headers, "DRVIC2020.Total price for in-district students living on campus  2020-21")
	assert.Equal(t, "institution name", headers[0])
	assert.Equal(t, "name", InternalNames()[0])
}

func TestCheckHeader(t *testing.T) {
	t.Run("complete header", func(t *testing.T) {
		report := CheckHeader(ExpectedHeaders())
		assert.Empty(t, report.Missing)
		assert.Empty(t, report.Unrecognized)
	})

	t.Run("missing and extra columns", func(t *testing.T) {
		header := []string{
			"unitid",
			HeaderStreetAddress,
			"DRVEF2020.Total enrollment", // single space does not match
		}
		report := CheckHeader(header)

		assert.Equal(t, []string{"unitid", "DRVEF2020.Total enrollment"}, report.Unrecognized)
		assert.Len(t, report.Missing, len(Columns)-1)

		required := report.MissingRequired()
		names := make([]string, len(required))
		for i, c := range required {
			names[i] = c.External
		}
		assert.Contains(t, names, HeaderName)
		assert.Contains(t, names, HeaderLatitude)
		assert.NotContains(t, names, HeaderStreetAddress)
		assert.NotContains(t, names, HeaderTotalEnrollment)
	})
}

func TestColumnKind_String(t *testing.T) {
	assert.Equal(t, "tri-state boolean", KindTriState.String())
	assert.Equal(t, "unknown", ColumnKind(99).String())
}
