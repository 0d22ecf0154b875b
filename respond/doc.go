// Package respond answers questions over the indexed corpus. The
// responder embeds the question, retrieves the closest chunks, and hands
// the survivors of the score threshold to the completion model as
// numbered passages. When nothing clears the threshold it answers from a
// canned message and never spends a completion call.
package respond
