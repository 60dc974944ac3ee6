// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package ckan

import (
	"fmt"
	"net/url"
)

// this error type is returned when a request to a CKAN endpoint can't be
// completed: the transport failed or the endpoint answered with a non-2xx
// status (StatusCode is 0 for transport failures)
type RequestFailureError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e RequestFailureError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request to CKAN endpoint %s failed with status %d", e.Endpoint, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("Request to CKAN endpoint %s failed: %s", e.Endpoint, e.Err.Error())
	}
	return fmt.Sprintf("Request to CKAN endpoint %s failed", e.Endpoint)
}

func (e RequestFailureError) Unwrap() error {
	return e.Err
}

// this error type is returned when a CKAN endpoint answers with a JSON
// envelope whose success flag isn't set, or which lacks an expected field
type InvalidResponseError struct {
	Endpoint, Action string
	Params           url.Values
	Message          string
}

func (e InvalidResponseError) Error() string {
	if len(e.Params) > 0 {
		return fmt.Sprintf("Invalid response from CKAN endpoint %s (action %s, parameters %s): %s",
			e.Endpoint, e.Action, e.Params.Encode(), e.Message)
	}
	return fmt.Sprintf("Invalid response from CKAN endpoint %s (action %s): %s",
		e.Endpoint, e.Action, e.Message)
}

// this error type is returned when a best resource URL is requested for a
// package with no resources
type EmptyResourceListError struct {
	PackageId string
}

func (e EmptyResourceListError) Error() string {
	return fmt.Sprintf("Package '%s' has no resources", e.PackageId)
}

// this error type is returned when an invalid search parameter is specified
type InvalidSearchParameterError struct {
	Message string
}

func (e InvalidSearchParameterError) Error() string {
	return fmt.Sprintf("Invalid search parameter: %s", e.Message)
}

// this error type is returned when a client is created for a base URL that
// isn't an absolute URL
type InvalidEndpointError struct {
	Endpoint, Message string
}

func (e InvalidEndpointError) Error() string {
	return fmt.Sprintf("Invalid CKAN endpoint '%s': %s", e.Endpoint, e.Message)
}

// this error type is emitted if an endpoint redirects an HTTPS request to an
// HTTP endpoint
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
