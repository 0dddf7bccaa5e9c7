package memory

import "quiz-arena/internal/domain"

// DefaultBankID names the built-in general-knowledge bank served when no
// backing store is configured.
const DefaultBankID = "general-knowledge"

// DefaultBanks returns the curated built-in question set.
func DefaultBanks() map[string]domain.QuestionBank {
	return map[string]domain.QuestionBank{
		DefaultBankID: {
			ID: DefaultBankID,
			Questions: []domain.Question{
				{
					ID:           1,
					Prompt:       "Which planet is known as the Red Planet?",
					Options:      []string{"Venus", "Mars", "Jupiter", "Saturn"},
					CorrectIndex: 1,
					Category:     "Astronomy",
					Explanation:  "Mars is called the Red Planet because of its reddish appearance, which comes from iron oxide (rust) on its surface.",
				},
				{
					ID:           2,
					Prompt:       "What is the capital of Australia?",
					Options:      []string{"Sydney", "Melbourne", "Canberra", "Perth"},
					CorrectIndex: 2,
					Category:     "Geography",
					Explanation:  "Canberra is the capital city of Australia, chosen as a compromise between rivals Sydney and Melbourne.",
				},
				{
					ID:           3,
					Prompt:       "Which programming language was created by Guido van Rossum?",
					Options:      []string{"Java", "Python", "C++", "JavaScript"},
					CorrectIndex: 1,
					Category:     "Technology",
					Explanation:  "Python was created by Guido van Rossum and first released in 1991.",
				},
				{
					ID:           4,
					Prompt:       "What is the largest mammal in the world?",
					Options:      []string{"African Elephant", "Blue Whale", "Giraffe", "Hippopotamus"},
					CorrectIndex: 1,
					Category:     "Biology",
					Explanation:  "The Blue Whale is the largest mammal and the largest animal that has ever lived on Earth.",
				},
				{
					ID:           5,
					Prompt:       "In which year did World War II end?",
					Options:      []string{"1944", "1945", "1946", "1947"},
					CorrectIndex: 1,
					Category:     "History",
					Explanation:  "World War II ended in 1945 with the surrender of Japan in September.",
				},
				{
					ID:           6,
					Prompt:       "What is the chemical symbol for gold?",
					Options:      []string{"Go", "Gd", "Au", "Ag"},
					CorrectIndex: 2,
					Category:     "Chemistry",
					Explanation:  "Au is the chemical symbol for gold, derived from the Latin word 'aurum'.",
				},
				{
					ID:           7,
					Prompt:       "Which Shakespearean play features the characters Romeo and Juliet?",
					Options:      []string{"Hamlet", "Macbeth", "Romeo and Juliet", "Othello"},
					CorrectIndex: 2,
					Category:     "Literature",
					Explanation:  "Romeo and Juliet is one of Shakespeare's most famous tragedies about star-crossed lovers.",
				},
				{
					ID:           8,
					Prompt:       "What is the square root of 144?",
					Options:      []string{"11", "12", "13", "14"},
					CorrectIndex: 1,
					Category:     "Mathematics",
					Explanation:  "The square root of 144 is 12, because 12 x 12 = 144.",
				},
				{
					ID:           9,
					Prompt:       "Which ocean is the largest?",
					Options:      []string{"Atlantic", "Indian", "Pacific", "Arctic"},
					CorrectIndex: 2,
					Category:     "Geography",
					Explanation:  "The Pacific Ocean is the largest ocean, covering about one-third of Earth's surface.",
				},
				{
					ID:           10,
					Prompt:       "Who painted the Mona Lisa?",
					Options:      []string{"Pablo Picasso", "Leonardo da Vinci", "Vincent van Gogh", "Michelangelo"},
					CorrectIndex: 1,
					Category:     "Art",
					Explanation:  "The Mona Lisa was painted by Leonardo da Vinci during the Italian Renaissance.",
				},
			},
		},
	}
}
