package netguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateCallbackURLRejectsNonHTTPScheme(t *testing.T) {
	err := ValidateCallbackURL("ftp://example.com/hook")
	require.Error(t, err)
}

func TestValidateCallbackURLRejectsLoopback(t *testing.T) {
	err := ValidateCallbackURL("http://127.0.0.1:8080/hook")
	require.Error(t, err)
}

func TestValidateCallbackURLRejectsPrivateRange(t *testing.T) {
	err := ValidateCallbackURL("http://192.168.1.5/hook")
	require.Error(t, err)
}

func TestValidateCallbackURLRejectsLinkLocal(t *testing.T) {
	err := ValidateCallbackURL("http://169.254.169.254/latest/meta-data")
	require.Error(t, err)
}

func TestValidateCallbackURLAcceptsPublicAddress(t *testing.T) {
	err := ValidateCallbackURL("http://8.8.8.8/hook")
	require.NoError(t, err)
}

func TestValidateCallbackURLRejectsMissingHost(t *testing.T) {
	err := ValidateCallbackURL("http:///hook")
	require.Error(t, err)
}
