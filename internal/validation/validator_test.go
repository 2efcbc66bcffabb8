package validation_test

import (
	"testing"

	"sweetshop/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) validation.FieldErrors {
	t.Helper()
	require.Error(t, err)
	fe, ok := err.(validation.FieldErrors)
	require.True(t, ok, "expected FieldErrors, got %T", err)
	return fe
}

func TestDecodeRegister(t *testing.T) {
	v := validation.New()

	req, err := v.DecodeRegister([]byte(`{"name":" Test User ","email":"   test2@example.com   ","password":" password123 "}`))
	require.NoError(t, err)
	assert.Equal(t, "Test User", req.Name)
	assert.Equal(t, "test2@example.com", req.Email)
	assert.Equal(t, "password123", req.Password)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing fields", `{}`, "name"},
		{"empty body", ``, "email"},
		{"invalid email", `{"name":"Test","email":"not-an-email","password":"123456"}`, "email"},
		{"email without domain", `{"name":"Test","email":"test@","password":"123456"}`, "email"},
		{"short password", `{"name":"Short","email":"short@example.com","password":"123"}`, "password"},
		{"empty name", `{"name":"","email":"a@example.com","password":"password123"}`, "name"},
		{"blank name", `{"name":"   ","email":"a@example.com","password":"password123"}`, "name"},
		{"blank password", `{"name":"A","email":"a@example.com","password":"      "}`, "password"},
		{"unexpected field", `{"name":"A","email":"a@example.com","password":"password123","role":"admin"}`, "role"},
		{"case variant keys", `{"Name":"A","EMAIL":"a@example.com","password":"password123"}`, "EMAIL"},
		{"not json", `name=A`, "body"},
		{"array body", `[]`, "body"},
		{"wrong type", `{"name":1,"email":"a@example.com","password":"password123"}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.DecodeRegister([]byte(tt.body))
			fe := fieldErrors(t, err)
			assert.True(t, fe.Has(tt.field), "expected error on %q, got %v", tt.field, fe)
		})
	}
}

func TestDecodeLogin(t *testing.T) {
	v := validation.New()

	req, err := v.DecodeLogin([]byte(`{"email":"user@example.com","password":"password123"}`))
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", req.Email)

	_, err = v.DecodeLogin([]byte(`{"email":"user@example.com","password":"password123","name":"x"}`))
	assert.True(t, fieldErrors(t, err).Has("name"))

	_, err = v.DecodeLogin([]byte(`{"email":"user@example.com"}`))
	assert.True(t, fieldErrors(t, err).Has("password"))
}

func TestDecodeCreateSweet(t *testing.T) {
	v := validation.New()

	req, err := v.DecodeCreateSweet([]byte(`{"name":"Lollipop","category":"Candy","price":0,"quantity":0,"extra":true}`))
	require.NoError(t, err)
	require.NotNil(t, req.Price)
	require.NotNil(t, req.Quantity)
	assert.Equal(t, 0.0, *req.Price)
	assert.Equal(t, 0, *req.Quantity)

	_, err = v.DecodeCreateSweet([]byte(`{}`))
	fe := fieldErrors(t, err)
	for _, f := range []string{"name", "category", "price", "quantity"} {
		assert.True(t, fe.Has(f), "expected error on %q", f)
	}

	_, err = v.DecodeCreateSweet([]byte(`{"name":"Candy","category":"Sugar","price":-5,"quantity":10}`))
	assert.True(t, fieldErrors(t, err).Has("price"))

	_, err = v.DecodeCreateSweet([]byte(`{"name":"Candy","category":"Sugar","price":"10","quantity":10}`))
	assert.True(t, fieldErrors(t, err).Has("price"))

	_, err = v.DecodeCreateSweet([]byte(`{"name":"Candy","category":"Sugar","price":1,"quantity":2.5}`))
	assert.True(t, fieldErrors(t, err).Has("quantity"))

	_, err = v.DecodeCreateSweet([]byte(`{"name":"Candy","category":"  ","price":1,"quantity":-1}`))
	fe = fieldErrors(t, err)
	assert.True(t, fe.Has("category"))
	assert.True(t, fe.Has("quantity"))
}

func TestDecodeUpdateSweet(t *testing.T) {
	v := validation.New()

	req, err := v.DecodeUpdateSweet([]byte(`{"price":5}`))
	require.NoError(t, err)
	assert.Nil(t, req.Name)
	assert.Nil(t, req.Quantity)
	require.NotNil(t, req.Price)
	assert.Equal(t, 5.0, *req.Price)

	req, err = v.DecodeUpdateSweet([]byte(`{"name":"  Mint  "}`))
	require.NoError(t, err)
	assert.Equal(t, "Mint", *req.Name)

	_, err = v.DecodeUpdateSweet([]byte(`{"name":"   "}`))
	assert.True(t, fieldErrors(t, err).Has("name"))

	_, err = v.DecodeUpdateSweet([]byte(`{"quantity":-3}`))
	assert.True(t, fieldErrors(t, err).Has("quantity"))

	_, err = v.DecodeUpdateSweet([]byte(`{"id":"abc"}`))
	assert.True(t, fieldErrors(t, err).Has("id"))
}

func TestDecodePurchaseAndRestock(t *testing.T) {
	v := validation.New()

	p, err := v.DecodePurchase([]byte(`{"quantity":2}`))
	require.NoError(t, err)
	assert.Equal(t, 2, *p.Quantity)

	for _, body := range []string{`{"quantity":0}`, `{"quantity":-1}`, `{}`, `{"quantity":"2"}`, `{"quantity":1.5}`} {
		_, err := v.DecodePurchase([]byte(body))
		assert.True(t, fieldErrors(t, err).Has("quantity"), body)
	}

	r, err := v.DecodeRestock([]byte(`{"amount":10}`))
	require.NoError(t, err)
	assert.Equal(t, 10, *r.Amount)

	for _, body := range []string{`{"amount":0}`, `{"amount":-10}`, `{}`, `{"amount":1000001}`} {
		_, err := v.DecodeRestock([]byte(body))
		assert.True(t, fieldErrors(t, err).Has("amount"), body)
	}

	_, err = v.DecodePurchase([]byte(`{"quantity":1000001}`))
	assert.True(t, fieldErrors(t, err).Has("quantity"))

	// Keys must match exactly; case variants are unknown keys.
	_, err = v.DecodeRestock([]byte(`{"AMOUNT":5}`))
	assert.True(t, fieldErrors(t, err).Has("AMOUNT"))

	_, err = v.DecodeRestock([]byte(`{"amount":10,"quantity":3}`))
	assert.True(t, fieldErrors(t, err).Has("quantity"))
}

func TestParseSearchQuery(t *testing.T) {
	filter, err := validation.ParseSearchQuery(" caramel ", "", "1.5", "20")
	require.NoError(t, err)
	assert.Equal(t, "caramel", filter.Name)
	assert.Empty(t, filter.Category)
	require.NotNil(t, filter.MinPrice)
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, 1.5, *filter.MinPrice)
	assert.Equal(t, 20.0, *filter.MaxPrice)

	filter, err = validation.ParseSearchQuery("", "", "", "")
	require.NoError(t, err)
	assert.True(t, filter.IsEmpty())

	_, err = validation.ParseSearchQuery("", "", "cheap", "")
	assert.True(t, fieldErrors(t, err).Has("minPrice"))

	_, err = validation.ParseSearchQuery("", "", "", "-1")
	assert.True(t, fieldErrors(t, err).Has("maxPrice"))

	_, err = validation.ParseSearchQuery("", "", "10", "5")
	assert.True(t, fieldErrors(t, err).Has("minPrice"))
}
