// Package gemini provides an implementation of the annotator.Engine interface
// that uses Google's Gemini API to find self-harm passages in text.
//
// This package is an infrastructure adapter: it translates between the
// annotation contract and the external Gemini service without exposing the
// details of that service to the rest of the application.
//
// Key components:
//
// 1. Engine:
//   - Implements the annotator.Engine interface
//   - Sends one GenerateContent request per text unit, with a JSON response schema
//
// 2. Prompt Management:
//   - Uses a built-in prompt template, or one loaded from a file
//   - Substitutes the text into the template
//
// 3. Response Processing:
//   - Parses the structured JSON response into quoted spans
//   - Locates each quote in the original text to compute code-point offsets,
//     since model-reported offsets are unreliable
//
// 4. Error Handling:
//   - Safety blocks, empty candidates and unparsable output are reported with
//     the annotator error values; nothing is retried
package gemini
