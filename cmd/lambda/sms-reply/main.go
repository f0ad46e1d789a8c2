package main

import (
	"twilio-functions-utils/internal/functions"
	"twilio-functions-utils/pkg/lambda"
)

func main() {
	lambda.Start(functions.SMSReplyName, functions.SMSReply, functions.SMSReplyOptions())
}
