package integrations

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/failsafe-go/failsafe-go"
)

// failsafeGet runs fn under a failsafe retry policy, matching the call
// shape internal/providerregistry uses for failsafe.Get.
func failsafeGet(policy failsafe.Policy[[]byte], fn func() ([]byte, error)) ([]byte, error) {
	return failsafe.Get(fn, policy)
}

func jsonReader(payload []byte) *bytes.Reader {
	return bytes.NewReader(payload)
}

// doRequest performs the request and returns the body on any 2xx status,
// surfacing non-2xx statuses (including 429) as an error for the retry
// policy to evaluate.
func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429), retry-after=%s", resp.Header.Get("Retry-After"))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
