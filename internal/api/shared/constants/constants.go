package constants

const (
	SERVICE_NAME = "ambassador-api"

	// Header carrying the request id; generated when absent
	REQUEST_ID_HEADER = "X-Request-ID"

	MAX_NAME_LENGTH  = 255
	MAX_QUERY_LENGTH = 100
)
