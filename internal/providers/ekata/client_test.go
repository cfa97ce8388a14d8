package ekata_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/mocks"
	"github.com/votetripling/ambassador-api/internal/providers/ekata"
)

func TestEkataClient_LookupIdentity(t *testing.T) {
	tests := []struct {
		name     string
		owners   []ekata.Person
		expected string
	}{
		{"full name", []ekata.Person{{Name: "Ann Able"}}, "Ann Able"},
		{"split name", []ekata.Person{{Firstname: "Ann", Lastname: "Able"}}, "Ann Able"},
		{"first non empty owner", []ekata.Person{{}, {Name: "Bob Baker"}}, "Bob Baker"},
		{"no owner", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
			client := ekata.NewClient(mockHTTPClient, "https://api.ekata.com", "test-key")
			ctx := context.Background()

			mockHTTPClient.EXPECT().
				Get(ctx, "https://api.ekata.com/3.1/phone?api_key=test-key&phone=%2B15550100001", gomock.Nil(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, _ http.Header, result interface{}) error {
					resp := result.(*ekata.PhoneResponse)
					resp.BelongsTo = tt.owners
					return nil
				})

			v, err := client.LookupIdentity(ctx, "+15550100001")
			require.NoError(t, err)
			if tt.expected == "" {
				assert.Nil(t, v)
				return
			}
			require.NotNil(t, v)
			assert.Equal(t, "ekata", v.Source)
			assert.Equal(t, tt.expected, v.Name)
		})
	}
}

func TestEkataClient_LookupIdentity_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockHTTPClient := mocks.NewMockHTTPClient(ctrl)
	ctx := context.Background()

	_, err := ekata.NewClient(mockHTTPClient, "https://api.ekata.com", "").LookupIdentity(ctx, "+15550100001")
	assert.ErrorIs(t, err, ekata.ErrNoAPIKey)

	mockHTTPClient.EXPECT().Get(ctx, gomock.Any(), gomock.Nil(), gomock.Any()).Return(errors.New("timeout"))
	_, err = ekata.NewClient(mockHTTPClient, "https://api.ekata.com", "test-key").LookupIdentity(ctx, "+15550100001")
	assert.ErrorContains(t, err, "failed to call Ekata API")
}
