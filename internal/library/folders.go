package library

import "strings"

// MaxFolderDepth bounds the parentId walk so a cyclic chain cannot loop forever.
const MaxFolderDepth = 10

// RootLabel is rendered for prompts that live outside any folder.
const RootLabel = "Root"

// FolderPath renders the folder chain ending at id, root first, joined with " / ".
// At most MaxFolderDepth names are included. An empty or unknown id renders RootLabel.
func FolderPath(folders []Folder, id string) string {
	if id == "" {
		return RootLabel
	}

	byID := make(map[string]*Folder, len(folders))
	for i := range folders {
		byID[folders[i].ID] = &folders[i]
	}

	var chain []string
	current := byID[id]
	for depth := 0; current != nil && depth < MaxFolderDepth; depth++ {
		chain = append(chain, current.Name)
		if current.ParentID == nil {
			break
		}
		current = byID[*current.ParentID]
	}

	if len(chain) == 0 {
		return RootLabel
	}

	// Reverse to root-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return strings.Join(chain, " / ")
}
