package scrape

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roofsite-cli/internal/model"
	"github.com/sells-group/roofsite-cli/pkg/google"
	"github.com/sells-group/roofsite-cli/pkg/google/mocks"
)

func TestPlaceQuery(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://www.google.com/maps/place/Cowboys-Vaqueros+Construction/@33.36,-84.64,15z/data=!4m6", want: "Cowboys-Vaqueros Construction"},
		{url: "https://www.google.com/maps/place/Peach%20State%20Roofing/", want: "Peach State Roofing"},
		{url: "https://www.google.com/maps/search/?api=1&query=Acme+Roofing+Atlanta", want: "Acme Roofing Atlanta"},
		{url: "https://maps.google.com/?q=Acme%20Roofing", want: "Acme Roofing"},
		{url: "https://www.google.com/maps/@33.7,-84.3,12z", wantErr: true},
		{url: "not a url", wantErr: true},
	}
	for _, tt := range tests {
		got, err := PlaceQuery(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got)
	}
}

const mapsURL = "https://www.google.com/maps/place/Acme+Roofing/@33.7,-84.3,15z"

func TestReviewsSuccess(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("TextSearch", mock.Anything, "Acme Roofing").
		Return(&google.TextSearchResponse{Places: []google.Place{{ID: "p1"}}}, nil)
	m.On("PlaceDetails", mock.Anything, "p1").Return(&google.Place{
		DisplayName: google.DisplayName{Text: "Acme Roofing"},
		Reviews: []google.PlaceReview{
			{Rating: 5, Text: google.LocalizedText{Text: " Great work "}, AuthorAttribution: google.AuthorAttribution{DisplayName: "Pat"}, PublishTime: "2024-05-02T10:00:00Z"},
			{Rating: 0, Text: google.LocalizedText{Text: "unrated"}},
			{Rating: 3, Text: google.LocalizedText{Text: "ok"}, AuthorAttribution: google.AuthorAttribution{DisplayName: "Sam"}, RelativePublishTimeDescription: "2 weeks ago"},
		},
	}, nil)

	reviews, o := NewPlacesReviews(m).Reviews(context.Background(), mapsURL)
	assert.Equal(t, model.OutcomeOK, o.Kind)
	assert.Equal(t, []model.Review{
		{Name: "Pat", Rating: 5, Date: "2024-05-02", Text: "Great work"},
		{Name: "Sam", Rating: 3, Date: "2 weeks ago", Text: "ok"},
	}, reviews)
}

func TestReviewsNoKey(t *testing.T) {
	reviews, o := NewPlacesReviews(nil).Reviews(context.Background(), mapsURL)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
	assert.Equal(t, model.ReasonNoKey, o.Reason)
}

type statusErr int

func (s statusErr) Error() string   { return http.StatusText(int(s)) }
func (s statusErr) HTTPStatus() int { return int(s) }

func TestReviewsAPIFailure(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("TextSearch", mock.Anything, "Acme Roofing").Return(nil, statusErr(http.StatusServiceUnavailable))

	reviews, o := NewPlacesReviews(m).Reviews(context.Background(), mapsURL)
	assert.Empty(t, reviews)
	assert.True(t, o.IsFallback())
	assert.Equal(t, model.ReasonTransient, o.Reason)
}

func TestReviewsPlaceNotFound(t *testing.T) {
	m := mocks.NewMockClient(t)
	m.On("TextSearch", mock.Anything, "Acme Roofing").Return(&google.TextSearchResponse{}, nil)

	reviews, o := NewPlacesReviews(m).Reviews(context.Background(), mapsURL)
	assert.Empty(t, reviews)
	assert.Equal(t, model.ReasonNoInput, o.Reason)
}

func TestReviewsBadURL(t *testing.T) {
	m := mocks.NewMockClient(t)
	reviews, o := NewPlacesReviews(m).Reviews(context.Background(), "")
	assert.Empty(t, reviews)
	assert.Equal(t, model.ReasonNoInput, o.Reason)
	assert.Error(t, o.Err)
}
