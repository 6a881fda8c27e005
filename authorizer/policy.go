package authorizer

import "github.com/aws/aws-lambda-go/events"

// Effect is an IAM policy statement effect
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

const (
	policyVersion = "2012-10-17"
	invokeAction  = "execute-api:Invoke"
)

// GeneratePolicy builds the API Gateway authorizer response. The policy
// document is left empty when effect or resource is empty.
func GeneratePolicy(principalID string, effect Effect, resource string) events.APIGatewayCustomAuthorizerResponse {
	resp := events.APIGatewayCustomAuthorizerResponse{PrincipalID: principalID}

	if effect != "" && resource != "" {
		resp.PolicyDocument = events.APIGatewayCustomAuthorizerPolicy{
			Version: policyVersion,
			Statement: []events.IAMPolicyStatement{{
				Action:   []string{invokeAction},
				Effect:   string(effect),
				Resource: []string{resource},
			}},
		}
	}

	return resp
}

// Response renders the decision for API Gateway. Allowed tenants are exposed
// to the integration as context.tenantId.
func (d Decision) Response(resource string) events.APIGatewayCustomAuthorizerResponse {
	resp := GeneratePolicy(d.PrincipalID, d.Effect, resource)
	if d.Allowed() {
		resp.Context = map[string]interface{}{"tenantId": d.PrincipalID}
	}
	return resp
}
