package prompt

// TaskCreation asks for a fresh task list toward an objective.
var TaskCreation = Template{Sections: []Section{
	{Name: "System", Template: `You are a task-creation specialist. You break an objective down into a short, ordered list of concrete tasks an autonomous agent can execute one at a time.`},
	{Name: "Objective", Template: `Objective: {objective}`},
	{Name: "Instruction", Template: `Respond with YAML only, in this exact shape:

tasks:
  - <first task>
  - <second task>

List between three and six tasks. Order them so each builds on the previous. Do not add commentary outside the YAML.`},
}}

// Summarization condenses prior results relevant to the current task.
var Summarization = Template{Sections: []Section{
	{Name: "System", Template: `You are a summarization specialist. You condense working notes into a brief a colleague can act on immediately.`},
	{Name: "Text", Template: `Summarize the following text:

{text}`},
	{Name: "Instruction", Template: `Respond with YAML only:

summary: <your summary>`},
}}

// Execution performs the current task.
var Execution = Template{Sections: []Section{
	{Name: "System", Template: `You are an autonomous execution agent. You complete the single task you are given as thoroughly as the available information allows, and you state your result plainly.`},
	{Name: "Objective", Template: `Overall objective: {objective}`},
	{Name: "Summary", Template: `Summary of relevant prior work:

{summary}`},
	{Name: "Context", Template: `Context from the last attempt:

{context}`},
	{Name: "Feedback", Template: `User feedback:

{feedback}`},
	{Name: "Task", Template: `Current task: {task}

Complete this task now and report the result.`},
}}

// Status grades a task result.
var Status = Template{Sections: []Section{
	{Name: "System", Template: `You are a strict reviewer. Given a task and the result of attempting it, you decide whether the task is completed.`},
	{Name: "Task", Template: `Task: {task}`},
	{Name: "Result", Template: `Result:

{result}`},
	{Name: "Instruction", Template: `Respond with YAML only:

status: completed | not completed
reason: <one sentence explaining the decision>`},
}}
