package main

import (
	"twilio-functions-utils/internal/functions"
	"twilio-functions-utils/pkg/lambda"
)

func main() {
	lambda.Start(functions.FlexSecureName, functions.FlexSecure, functions.FlexSecureOptions())
}
