package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"emssig/signer"
)

// headerList collects repeatable flag values.
type headerList []string

func (h *headerList) String() string { return strings.Join(*h, ", ") }

func (h *headerList) Set(v string) error {
	*h = append(*h, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("emssign", flag.ContinueOnError)
	fs.SetOutput(stderr)

	accessKey := fs.String("access-key", "", "access key id to sign with")
	secret := fs.String("secret", "", "secret key to sign with")
	region := fs.String("region", "", "credential scope region")
	service := fs.String("service", "", "credential scope service")
	requestType := fs.String("request-type", "ems_request", "credential scope request type")
	vendor := fs.String("vendor", "EMS", "vendor prefix for headers, query keys, and the algorithm token")
	algo := fs.String("algo", "sha256", "hash algorithm: sha256 or sha512")
	authHeader := fs.String("auth-header", "X-Ems-Auth", "authorization header name")
	dateHeader := fs.String("date-header", "X-Ems-Date", "date header name")
	method := fs.String("method", "GET", "request method")
	rawURL := fs.String("url", "", "request url")
	body := fs.String("body", "", "request body")
	date := fs.String("date", "", "request timestamp as YYYYMMDDTHHMMSSZ; defaults to now")
	presign := fs.Bool("presign", false, "emit a presigned url instead of headers")
	expires := fs.Int("expires", 86400, "presigned url lifetime in seconds")

	var extraHeaders headerList
	fs.Var(&extraHeaders, "header", "name:value header to send (repeatable)")
	var signHeaders headerList
	fs.Var(&signHeaders, "sign-header", "header name to include in the signature (repeatable)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *accessKey == "" || *secret == "" || *region == "" || *service == "" || *rawURL == "" {
		fmt.Fprintln(stderr, "error: -access-key, -secret, -region, -service, and -url are required")
		return 2
	}
	if !signer.HashAlgo(*algo).Valid() {
		fmt.Fprintf(stderr, "error: unsupported algorithm %q\n", *algo)
		return 2
	}

	when := time.Now().UTC()
	if *date != "" {
		parsed, err := time.Parse(signer.LongDateFormat, *date)
		if err != nil {
			fmt.Fprintf(stderr, "error: invalid -date %q: %v\n", *date, err)
			return 2
		}
		when = parsed
	}

	client := signer.NewClient(signer.ClientConfig{
		SecretKey:   *secret,
		AccessKeyID: *accessKey,
		Party: signer.Party{
			Region:      *region,
			Service:     *service,
			RequestType: *requestType,
		},
		VendorPrefix:   *vendor,
		HashAlgo:       signer.HashAlgo(*algo),
		AuthHeaderName: *authHeader,
		DateHeaderName: *dateHeader,
	})

	headers, err := parseHeaderFlags(extraHeaders)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if *presign {
		signedURL, err := client.SignURL(*rawURL, when, time.Duration(*expires)*time.Second, headers, signHeaders)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, signedURL)
		return 0
	}

	signed, err := client.SignHeaders(*method, *rawURL, []byte(*body), headers, signHeaders, when)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	names := make([]string, 0, len(signed))
	for name := range signed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range signed[name] {
			fmt.Fprintf(stdout, "%s: %s\n", name, value)
		}
	}
	return 0
}

func parseHeaderFlags(values headerList) (map[string][]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := make(map[string][]string, len(values))
	for _, raw := range values {
		idx := strings.IndexByte(raw, ':')
		if idx <= 0 {
			return nil, fmt.Errorf("malformed -header %q, want name:value", raw)
		}
		name := strings.ToLower(strings.TrimSpace(raw[:idx]))
		value := strings.TrimSpace(raw[idx+1:])
		headers[name] = append(headers[name], value)
	}
	return headers, nil
}
