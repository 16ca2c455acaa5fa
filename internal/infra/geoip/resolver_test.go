package geoip

import (
	"errors"
	"net"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	codes map[string]string
	calls int
	err   error
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	record := &geoip2.Country{}
	record.Country.IsoCode = f.codes[ip.String()]
	return record, nil
}

func (f *fakeReader) Close() error { return nil }

func TestNilResolver(t *testing.T) {
	r, err := NewResolver("  ")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = r.CountryCode("1.2.3.4")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, r.Lookup())
	assert.NoError(t, r.Close())
}

func TestNewResolverMissingFile(t *testing.T) {
	_, err := NewResolver("/nonexistent/GeoLite2-Country.mmdb")
	assert.Error(t, err)
}

func TestCountryCodeCachesLookups(t *testing.T) {
	reader := &fakeReader{codes: map[string]string{"36.68.0.1": "id"}}
	r := newResolver(reader)

	code, err := r.CountryCode("36.68.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ID", code)

	code, err = r.Lookup()("36.68.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ID", code)
	assert.Equal(t, 1, reader.calls)

	code, err = r.CountryCode("8.8.8.8")
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestCountryCodeErrors(t *testing.T) {
	r := newResolver(&fakeReader{err: errors.New("corrupt")})
	_, err := r.CountryCode("not-an-ip")
	assert.Error(t, err)
	_, err = r.CountryCode("1.1.1.1")
	assert.ErrorContains(t, err, "corrupt")
}
