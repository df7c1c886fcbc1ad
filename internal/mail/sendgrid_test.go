package mail_test

import (
	"context"
	"errors"
	"testing"

	"civicreport/backend/internal/mail"

	"github.com/sendgrid/rest"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

func TestSend_BuildsMessage(t *testing.T) {
	// Arrange
	client := new(MockClient)
	client.On("SendWithContext", mock.Anything).Return(&rest.Response{StatusCode: 202}, nil).Once()
	m := mail.NewSendGridMailerWithClient(client, "noreply@city.example", "City Reports", nil)

	// Act
	err := m.Send(context.Background(), "mario@example.org", "Update", "Your report changed")

	// Assert
	require.NoError(t, err)
	sent := client.Calls[0].Arguments.Get(0).(*sgmail.SGMailV3)
	assert.Equal(t, "Update", sent.Subject)
	assert.Equal(t, "noreply@city.example", sent.From.Address)
	assert.Equal(t, "City Reports", sent.From.Name)
	require.Len(t, sent.Personalizations, 1)
	assert.Equal(t, "mario@example.org", sent.Personalizations[0].To[0].Address)
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response *rest.Response
		err      error
	}{
		{"transport error", nil, errors.New("dial tcp: timeout")},
		{"error status", &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockClient)
			if tt.response == nil {
				client.On("SendWithContext", mock.Anything).Return(nil, tt.err)
			} else {
				client.On("SendWithContext", mock.Anything).Return(tt.response, nil)
			}
			m := mail.NewSendGridMailerWithClient(client, "a@b.c", "", nil)

			err := m.Send(context.Background(), "x@y.z", "s", "b")

			assert.Error(t, err)
		})
	}
}
