package dispatch

// Tool describes one operation for the decision process, in the shape MCP
// tools/list uses.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Tools returns the definitions of every dispatchable operation.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolMoveCartesian,
			Description: "Move the end effector by a relative offset in metres. Omitted axes do not move.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"x": map[string]any{"type": "number", "default": 0, "description": "forward/backward offset"},
					"y": map[string]any{"type": "number", "default": 0, "description": "left/right offset"},
					"z": map[string]any{"type": "number", "default": 0, "description": "up/down offset"},
				},
				"required": []string{},
			},
		},
		{
			Name:        ToolRotateJoint,
			Description: "Rotate a single joint (for example waist, shoulder, elbow, wrist_angle, wrist_rotate) by a number of degrees.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"joint_name": map[string]any{"type": "string"},
					"degrees":    map[string]any{"type": "number"},
				},
				"required": []string{"joint_name", "degrees"},
			},
		},
		{
			Name:        ToolControlGripper,
			Description: "Open or close the gripper.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"action": map[string]any{
						"type":        "string",
						"description": "gripper method name, e.g. open or close",
						"pattern":     gripperActionPattern.String(),
					},
				},
				"required": []string{"action"},
			},
		},
	}
}
