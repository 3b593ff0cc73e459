// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/manzil-stays/manzil-api/app/dto"
	"github.com/manzil-stays/manzil-api/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds request-level information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToClientInfo converts a client model to its API response view
func ToClientInfo(client models.Client) dto.ClientInfo {
	return dto.NewClientInfo(
		client.ID,
		client.UUID.String(),
		client.Email,
		client.FirstName,
		client.LastName,
		client.Role,
		client.PreferredLanguage,
		client.Phone,
		client.AvatarURL,
		client.Company,
		client.Bio,
		client.IsActive,
		client.IsEmailVerified,
		client.CreatedAt,
		client.LastLoginAt,
	)
}

// ToAdminDTO converts an admin model to its API response view
func ToAdminDTO(admin models.Admin) dto.AdminDTO {
	return dto.NewAdminDTO(
		admin.ID,
		admin.UUID.String(),
		admin.Username,
		admin.FullName,
		admin.DisplayName,
		admin.Role,
		admin.Email,
		admin.IsActive,
		admin.CreatedAt,
		admin.LastLoginAt,
	)
}
