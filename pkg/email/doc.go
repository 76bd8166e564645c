// Package email delivers transactional messages such as out-of-band
// one-time codes.
//
// Two EmailSender implementations exist. The Postmark client sends through
// Postmark's API and requires server and account tokens. DevSender writes
// each message to a JSON file so local runs never reach a real inbox. New
// picks between them from Config:
//
//	sender, err := email.New(cfg)
//	if err != nil {
//		return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Your sign-in code",
//		BodyText: "Your code is 123456",
//	})
//
// Invalid parameters fail with ErrInvalidParams before any I/O. Delivery
// failures wrap ErrFailedToSendEmail.
package email
