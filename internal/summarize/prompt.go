package summarize

// promptTemplate asks for the three sections the syllabus parser reads:
// a "Course:" line, a Weekly Schedule table and a To-do List table.
const promptTemplate = `You are given a course syllabus document. Your task is to extract and display the following information in the sections with the exact formatting described below:

# Course Information
Extract the course code and name. Common formats include "CS 1234", "COMPSCI 1234", or similar.
Return it in this format:
Course: [course code] - [course name]

**Weekly Schedule**
Create a neatly formatted table that lists the course content, assignments week by week. If certain types of activities (e.g., labs) do not apply to this course, omit the column for those activities. Here is the required format for the table:


| **Week** | **Course Content**       |
|----------|--------------------------|
| Week 1   | Summary of Week 1 content|
| Week 2   | Summary of Week 2 content|
| Week 3   | Summary of Week 3 content|
| ...      | ...                      |


**To-do List**
Extract and list **all deliverables** (assignments, tests, midterms, final exams, projects, etc.) in the order they appear in the syllabus. For each deliverable, include:

- **The exact name of the deliverable** (e.g., "Assignment 1", "Midterm Exam").
- **The percentage of the final course grade** (if available).
- **The due date** (if specified).


If a due date or percentage is not provided in the syllabus, leave that field blank. Here is the required format for the table:


| **Name**               | **% of Course Grade** | **Due Date**       |
|------------------------|-----------------------|--------------------|
| Assignment 1           | 10%                   | January 15, 2025   |
| Midterm Exam           | 25%                   | February 10, 2025  |
| Final Project          | 30%                   | April 5, 2025      |
| ...                    | ...                   | ...                |


**Important Notes**:
- Use the exact names and details from the syllabus without modifying them.
- After extracting all deliverables, organize the order of the  to display so that it is by date, from Jan to Dec in a calender year
- If a deliverable does not have a due date or percentage, fill the cell with the words "N/A".
- Never include ..., this should always be filled by the content of the syllabus
- Think about the weightings, sometimes assignments will be split up. Always keep in mind that the total weighting should add up to 100

Here is the document text:
`

// BuildPrompt embeds the document text in the fixed instructions.
func BuildPrompt(text string) string {
	return promptTemplate + text + "\n"
}
