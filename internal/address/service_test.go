package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/prairiemarket/storefront-backend/pkg/errors"
	"github.com/prairiemarket/storefront-backend/pkg/usps"
)

type stubStandardizer struct {
	queries []usps.AddressQuery
	result  usps.StandardizedAddress
	err     error
}

func (s *stubStandardizer) StandardizeAddress(_ context.Context, query usps.AddressQuery) (usps.StandardizedAddress, error) {
	s.queries = append(s.queries, query)
	return s.result, s.err
}

func TestValidateStripsZIPPlus4(t *testing.T) {
	stub := &stubStandardizer{
		result: usps.StandardizedAddress{StreetAddress: "475 LENFANT PLZ SW", City: "WASHINGTON", State: "DC", ZIPCode: "20260"},
	}
	svc := NewService(stub)

	got, err := svc.Validate(context.Background(), ValidateRequest{
		StreetAddress: " 475 L'Enfant Plaza SW ",
		City:          "Washington",
		State:         "dc",
		ZIPCode:       "20260-0004",
	})
	require.NoError(t, err)
	assert.Equal(t, "20260", got.ZIPCode)

	require.Len(t, stub.queries, 1)
	sent := stub.queries[0]
	assert.Equal(t, "475 L'Enfant Plaza SW", sent.StreetAddress)
	assert.Equal(t, "DC", sent.State)
	assert.Equal(t, "20260", sent.ZIPCode)
}

func TestValidateRequiredFields(t *testing.T) {
	cases := map[string]ValidateRequest{
		"missing street": {State: "KS", ZIPCode: "66215"},
		"missing state":  {StreetAddress: "123 Main St", ZIPCode: "66215"},
		"bad state":      {StreetAddress: "123 Main St", State: "Kansas", ZIPCode: "66215"},
		"missing zip":    {StreetAddress: "123 Main St", State: "KS"},
	}

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			stub := &stubStandardizer{}
			svc := NewService(stub)

			_, err := svc.Validate(context.Background(), req)
			require.Error(t, err)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
			assert.Empty(t, stub.queries)
		})
	}
}

func TestValidateCarrierErrorPassesThrough(t *testing.T) {
	stub := &stubStandardizer{
		err: pkgerrors.New(pkgerrors.CodeAddress, "address not found"),
	}
	svc := NewService(stub)

	_, err := svc.Validate(context.Background(), ValidateRequest{
		StreetAddress: "1 Nowhere Ln",
		State:         "KS",
		ZIPCode:       "66215",
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeAddress, appErr.Code())
}

func TestTrimZIPPlus4(t *testing.T) {
	assert.Equal(t, "66215", TrimZIPPlus4("66215-1234"))
	assert.Equal(t, "66215", TrimZIPPlus4(" 66215 "))
	assert.Equal(t, "", TrimZIPPlus4(""))
}
