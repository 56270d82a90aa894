package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/Freeeeeet/hospital_booking/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleImage(t *testing.T) {
	today := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	entries := []*model.ScheduleEntry{
		{DoctorID: 1, Date: today, MorningBooked: 2, MorningLimit: 4, AfternoonBooked: 3, AfternoonLimit: 1},
		{DoctorID: 1, Date: today.AddDate(0, 0, 1), MorningLimit: 10},
		{DoctorID: 1, Date: today.AddDate(0, 0, 2)},
	}

	data, err := ScheduleImage(&model.Doctor{Name: "Dr. House", Department: "Diagnostics"}, entries, today)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, sidePadding*2+dayWidth*len(entries), img.Bounds().Dx())
	assert.Equal(t, imageHeight, img.Bounds().Dy())
}

func TestScheduleImageEmpty(t *testing.T) {
	data, err := ScheduleImage(nil, nil, time.Now())
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, minImageWidth, img.Bounds().Dx())
}

func TestMaxCapacity(t *testing.T) {
	assert.Equal(t, 1, maxCapacity(nil))
	assert.Equal(t, 7, maxCapacity([]*model.ScheduleEntry{
		{MorningLimit: 3, AfternoonBooked: 7, AfternoonLimit: 5},
	}))
}
