package router

// User-visible reply templates. Each failure produces exactly one message
// in the thread; internal detail stays in the logs.
const (
	msgEmptyQuestion = "I didn't catch a question. What would you like to know?"

	msgAnswerFailed = "Something went wrong while answering that. Please try again."

	msgIngested = "Indexed %q (%d chunks). You can ask questions about it now."

	msgIngestedURL = "Indexed %s (%d chunks). You can ask questions about it now."

	msgUnsupportedFile = "I can't index %q: that file type isn't supported."

	msgDownloadFailed = "I couldn't download %q. Please try uploading it again."

	msgIngestFailed = "I couldn't index %q. Please try again."

	msgFetchFailed = "I couldn't fetch %s. Check the URL and try again."
)
