package prompt

const noMemberInfo = "No member information provided"

// workoutLogTemplate asks for a Korean, roughly one-page workout log. The
// additional-requirements section only appears when requirements were
// given, and carries them verbatim.
const workoutLogTemplate = `You are acting as a fitness trainer who needs to write detailed workout logs for your clients. Your goal is to create a comprehensive, professional workout log entry based on member information and the workout session that took place today.

Here is the member information:
{{.member}}

Here is today's workout content:
{{.routine}}

Your task is to write a detailed workout log entry in Korean that covers the following elements:

1. **For each exercise performed:**
   - Which muscle groups or body parts are targeted
   - The specific purpose and benefits of the exercise
   - Why this particular exercise was chosen for this member (connecting to their specific conditions, weaknesses, or goals mentioned in the member info)
   - Any discomfort, pain, or issues that occurred during the exercise
   - How you addressed or modified the workout in response to any issues

2. **Overall session summary:**
   - The general focus of today's training session
   - How today's workout aligns with the member's fitness goals or addresses their physical concerns
   - Any notable progress or observations

3. **Format requirements:**
   - Write in a professional but friendly tone appropriate for a fitness trainer
   - The length should be approximately one A4 page (around 800-1000 characters in Korean)
   - Write in Korean
   - Use clear paragraph structure
   {{if .requirements}}
4. **Additional requirements:**
{{.requirements}}{{end}}

Now write the complete workout log entry. The log should be written entirely in Korean, be professionally formatted, and be approximately one A4 page in length. Make sure to naturally incorporate all the required elements (target muscles, exercise purposes, reasons for selection based on member conditions, any discomfort and responses) into a cohesive narrative.`

// Default returns the built-in workout log prompt. It has no system part;
// system prompts are configured per provider.
func Default() *PromptVariant {
	return &PromptVariant{
		Name:        "workout-log",
		Description: "Korean trainer workout log, about one A4 page",
		User:        workoutLogTemplate,
	}
}
