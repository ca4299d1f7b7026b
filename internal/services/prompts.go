package services

import "fmt"

const (
	DefaultQuestionMaxTokens = 500
	DefaultExtractMaxTokens  = 150
	DefaultFallbackCity      = "Vienna"
)

const questionPrompt = `You are a helpful assistant that answers questions about places and locations.
Return a list of places that answer the question, one per line.
Format each line as: 'Name, City, Country'
If the question asks for a single place, return exactly one line.
Examples:
Input: "What is the highest building in Europe?"
Output: "Lakhta Center, Saint Petersburg, Russia"

Input: "What are the best places to eat in Vienna?"
Output: "Steirereck, Vienna, Austria
Amador, Vienna, Austria
Silvio Nickol Gourmet Restaurant, Vienna, Austria
Stiftskeller, Vienna, Austria
Plachutta, Vienna, Austria"

Do not include any other text in your response.
Do not include numbering or bullet points.
Each line must follow the exact format: Name, City, Country`

const extractPrompt = `You are a helpful assistant that extracts complete location entries from text.
Each location should include the full name, address, and city as a single entry.
Keep each location as ONE complete entry, do not split addresses into parts. Separate different locations with newlines.
Example input: 'There is a nice restaurant called Gustl Kitchen in Wiedner Hauptstrasse and I also like to visit Schönbrunn Palace' should return: 'Gustl Kitchen, Wiedner Hauptstrasse, Vienna
Schönbrunn Palace, Schönbrunner Schlossstrasse 47, 1130 Vienna'.
Do not include any other text in your response. Always include the city %s if no other city is mentioned.`

// QuestionPrompt returns the system prompt used to answer place questions.
func QuestionPrompt() string {
	return questionPrompt
}

// ExtractPrompt returns the system prompt used to pull place entries out of free text.
// city is appended to entries that name no city of their own.
func ExtractPrompt(city string) string {
	if city == "" {
		city = DefaultFallbackCity
	}
	return fmt.Sprintf(extractPrompt, city)
}
