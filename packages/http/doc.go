// Package http is the request pipeline of reqverify.
//
// It provides:
//   - RequestBuilder, a fluent accumulator for method, resource template,
//     query parameters, URL segments, headers, JSON body and authenticator
//   - RequestConfig, the immutable snapshot produced by Build
//   - Client, which executes a RequestConfig over its own transport
//   - Response and TypedResponse, the envelope returned for every status
//   - ExecuteExpecting, which turns a status mismatch into an error
package http
