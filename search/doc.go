// Package search provides the text-query entry points on top of the topk
// selector. It stays embedding-provider-agnostic by requiring an EmbedFunc
// supplied by the caller; all variants funnel into the same selection
// algorithm, differing only in whether scores are retained and where the
// candidates come from.
package search
