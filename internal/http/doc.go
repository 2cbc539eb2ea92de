// Package http provides the webhook handlers and middleware for the
// secretary service.
//
// The router exposes the following endpoints:
//   - GET /webhooks/whatsapp: Meta webhook verification. Echoes hub.challenge
//     when hub.mode is "subscribe" and hub.verify_token matches the
//     configured token.
//   - POST /webhooks/whatsapp: inbound WhatsApp Cloud API notifications.
//     Request bodies are authenticated against the app secret via the
//     X-Hub-Signature-256 header; text messages are deduplicated by message
//     id and handed to the conversation processor, whose reply is delivered
//     through the outbound WhatsApp client.
//   - POST /webhooks/telegram: inbound Telegram bot updates, authenticated
//     via the X-Telegram-Bot-Api-Secret-Token header.
//   - GET /healthz: liveness probe.
//
// Webhook payload DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
