package export

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"surveillance/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func TestReportsWorkbook(t *testing.T) {
	verifiedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	reports := []model.AshaReport{
		{
			ID:           uuid.New(),
			User:         model.User{Username: "asha_lakshmi"},
			District:     &model.DistrictBoundary{DistrictName: "Tirupati"},
			Village:      &model.VillageBoundary{VillageName: "Renigunta"},
			SymptomsJSON: datatypes.NewJSONType(model.Symptoms{Severity: "High", PatientName: "R. Devi", Symptoms: []string{"fever", "rash"}}),
			Status:       model.ReportVerified,
			Verifier:     &model.User{Username: "dr_rao"},
			VerifiedAt:   &verifiedAt,
		},
		{
			ID:           uuid.New(),
			User:         model.User{Username: "asha_kavya"},
			SymptomsJSON: datatypes.NewJSONType(model.Symptoms{Severity: "Low"}),
			Status:       model.ReportSubmitted,
		},
	}

	data, err := ReportsWorkbook(reports)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ReportsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, reportHeaders, rows[0])
	assert.Equal(t, "Tirupati", rows[1][3])
	assert.Equal(t, "fever, rash", rows[1][7])
	assert.Equal(t, "dr_rao", rows[1][9])
	assert.Equal(t, "SUBMITTED", rows[2][8])
	assert.Equal(t, []string{ReportsSheet}, f.GetSheetList())
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiverPut(t *testing.T) {
	fake := &fakeS3{}
	a := &Archiver{client: fake, bucket: "exports"}

	require.NoError(t, a.Put(context.Background(), "reports/x.xlsx", ContentTypeXLSX, []byte("data")))
	assert.Equal(t, "exports", *fake.input.Bucket)
	assert.Equal(t, "reports/x.xlsx", *fake.input.Key)
	assert.Equal(t, []byte("data"), fake.body)
}
