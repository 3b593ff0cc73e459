// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"fmt"
	"log"
	"strings"
)

// NotificationService delivers operational notices to the site operator.
// Password reset links are never mailed to the requester directly; they go
// to the operator channel, who relays them out of band.
type NotificationService interface {
	NotifyOperator(subject, message string) error
	SendEmail(email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	smsProvider   SMSProvider
	emailProvider EmailProvider
	operatorPhone string
	operatorEmail string
}

// SMSProvider interface for SMS sending
type SMSProvider interface {
	SendSMS(mobile, message string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(smsProvider SMSProvider, emailProvider EmailProvider, operatorPhone, operatorEmail string) NotificationService {
	return &NotificationServiceImpl{
		smsProvider:   smsProvider,
		emailProvider: emailProvider,
		operatorPhone: operatorPhone,
		operatorEmail: operatorEmail,
	}
}

// NotifyOperator sends the notice over every configured operator channel.
// SMS and email are attempted independently; the notice counts as delivered
// if at least one channel succeeds.
func (s *NotificationServiceImpl) NotifyOperator(subject, message string) error {
	var delivered bool
	var lastErr error

	if s.smsProvider != nil && s.operatorPhone != "" {
		if err := s.smsProvider.SendSMS(s.operatorPhone, subject+": "+message); err != nil {
			lastErr = err
		} else {
			delivered = true
		}
	}

	if s.emailProvider != nil && s.operatorEmail != "" {
		if err := s.emailProvider.SendEmail(s.operatorEmail, subject, message); err != nil {
			lastErr = err
		} else {
			delivered = true
		}
	}

	if !delivered {
		if lastErr != nil {
			return fmt.Errorf("failed to notify operator: %w", lastErr)
		}
		return fmt.Errorf("no operator channel configured")
	}

	return nil
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	// Basic email validation
	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(email, subject, message)
}

type MockSMSProvider struct{}

func NewMockSMSProvider() SMSProvider {
	return &MockSMSProvider{}
}

func (p *MockSMSProvider) SendSMS(mobile, message string) error {
	log.Printf("SMS sent to %s: %s", mobile, message)
	return nil
}

type MockEmailProvider struct{}

func NewMockEmailProvider() EmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}
