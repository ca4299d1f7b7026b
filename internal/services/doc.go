// Package services talks to the external providers behind pinmap: Google Places for geocoding and place details,
// and a chat-completion model (OpenAI or Gemini) for turning questions and free text into place descriptions.
//
// # Providers
//
// [PlacesProvider] is implemented by [PlacesService], a rate limited client for the Places and Geocoding HTTP APIs.
// [Completer] is implemented by [OpenAIService] and [GeminiService].
//
// # Resolution
//
// [Resolver] turns one free-text description into at most one [models.Marker] using a find-then-details lookup.
// Results are tagged with a [Status] so callers can tell "nothing matched" apart from "the provider failed".
//
// [Interpreter] and [Extractor] wrap a Completer with the question and extraction prompts and split the answer
// into one description per line.
//
// # Caching
//
// Place detail payloads can be cached through the [PlaceCache] interface. The sqlite implementation lives in the
// repositories package and [RedisPlaceCache] is backed by go-redis.
//
// # Error Handling
//
// Services wrap the sentinel errors from the shared package:
//   - [shared.ErrMissingCredential] : no API key configured, no request made
//   - [shared.ErrNotFound] : the provider had no match
//   - [shared.ErrProvider] : transport, auth or quota failures
//   - [shared.ErrMalformedResponse] : the provider answered with an unexpected shape
package services
