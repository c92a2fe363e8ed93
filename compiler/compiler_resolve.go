// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package compiler

import (
	"slices"
	"strings"

	"go.zeropb.org/zeropb/descriptor"
)

type fileMark uint8

const (
	fileUnvisited fileMark = iota
	fileVisiting
	fileVisited
)

// sortFiles reorders c.files into dependency order and links each
// file's Imports. A dependency on a file absent from the input set is
// recorded by name only; references into it fail later during
// resolution. A dependency cycle is fatal.
func (c *compiler) sortFiles() error {
	marks := make(map[*File]fileMark, len(c.files))
	sorted := make([]*File, 0, len(c.files))

	var visit func(file *File, stack []string) error
	visit = func(file *File, stack []string) error {
		marks[file] = fileVisiting
		stack = append(stack, file.Name)
		for _, depName := range file.Desc.Dependencies {
			dep, ok := c.filesByName[depName]
			if !ok {
				continue
			}
			file.Imports = append(file.Imports, dep)
			switch marks[dep] {
			case fileVisiting:
				start := slices.Index(stack, dep.Name)
				cycle := append(slices.Clone(stack[start:]), dep.Name)
				return errImportCycle(cycle)
			case fileUnvisited:
				if err := visit(dep, stack); err != nil {
					return err
				}
			}
		}
		marks[file] = fileVisited
		sorted = append(sorted, file)
		return nil
	}

	for _, file := range c.files {
		if marks[file] == fileUnvisited {
			if err := visit(file, nil); err != nil {
				return err
			}
		}
	}
	c.files = sorted
	return nil
}

// resolve links every field, oneof, and service method to its compiled
// declaration.
func (c *compiler) resolve() error {
	for _, file := range c.files {
		for _, msg := range file.Messages {
			if err := c.resolveMessage(msg); err != nil {
				return err
			}
		}
		for _, svc := range file.Services {
			if err := c.resolveService(file, svc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) resolveMessage(msg *Message) error {
	for _, field := range msg.Fields {
		if err := c.resolveField(msg, field); err != nil {
			return err
		}
	}
	for _, nested := range msg.Nested {
		if err := c.resolveMessage(nested); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) resolveField(msg *Message, field *Field) error {
	desc := field.Desc
	fieldName := qualify(msg.Name, desc.Name)
	if desc.Number < 1 || desc.Number > 536870911 {
		return errInvalidFieldNumber(fieldName, desc.Number)
	}
	if desc.Number >= 19000 && desc.Number <= 19999 {
		return errInvalidFieldNumber(fieldName, desc.Number)
	}

	// A proto3 optional field carries a synthesized single-member
	// oneof for presence tracking. It gets a presence bit instead of
	// a discriminant slot, so the synthetic oneof is not bound.
	if desc.OneofIndex >= 0 && !desc.Proto3Optional {
		if int(desc.OneofIndex) >= len(msg.Oneofs) {
			return errOneofIndex(fieldName, desc.OneofIndex)
		}
		oneof := msg.Oneofs[desc.OneofIndex]
		oneof.Fields = append(oneof.Fields, field)
		field.Oneof = oneof
	}

	switch desc.Type {
	case descriptor.TypeGroup:
		return errUnsupportedFieldType(fieldName, "group")
	case descriptor.TypeMessage:
		decl, err := c.resolveName(msg.Name, desc.TypeName, fieldName)
		if err != nil {
			return err
		}
		target, ok := decl.(*Message)
		if !ok {
			return errWrongTypeKind(desc.TypeName, fieldName, "a message")
		}
		field.Message = target
	case descriptor.TypeEnum:
		decl, err := c.resolveName(msg.Name, desc.TypeName, fieldName)
		if err != nil {
			return err
		}
		target, ok := decl.(*Enum)
		if !ok {
			return errWrongTypeKind(desc.TypeName, fieldName, "an enum")
		}
		field.Enum = target
	default:
		// Hand-built descriptors sometimes set type_name without a
		// type. Infer the type from what the name resolves to.
		if desc.Type == 0 && desc.TypeName != "" {
			decl, err := c.resolveName(msg.Name, desc.TypeName, fieldName)
			if err != nil {
				return err
			}
			switch target := decl.(type) {
			case *Message:
				desc.Type = descriptor.TypeMessage
				field.Message = target
			case *Enum:
				desc.Type = descriptor.TypeEnum
				field.Enum = target
			}
		}
	}
	if (desc.Type == descriptor.TypeMessage || desc.Type == descriptor.TypeEnum) && desc.TypeName == "" {
		return errMissingTypeName(fieldName)
	}
	return nil
}

func (c *compiler) resolveService(file *File, svc *Service) error {
	for _, methodDesc := range svc.Desc.Methods {
		methodName := qualify(svc.Name, methodDesc.Name)
		input, err := c.resolveMethodType(file, methodName, methodDesc.InputType)
		if err != nil {
			return err
		}
		output, err := c.resolveMethodType(file, methodName, methodDesc.OutputType)
		if err != nil {
			return err
		}
		svc.Methods = append(svc.Methods, &Method{
			Desc:   methodDesc,
			Input:  input,
			Output: output,
		})
	}
	return nil
}

func (c *compiler) resolveMethodType(file *File, methodName, typeName string) (*Message, error) {
	decl, err := c.resolveName(file.Package, typeName, methodName)
	if err != nil {
		return nil, err
	}
	msg, ok := decl.(*Message)
	if !ok {
		return nil, errWrongTypeKind(typeName, methodName, "a message")
	}
	return msg, nil
}

// resolveName looks up a type name relative to a scope. A leading dot
// makes the name fully qualified. Otherwise the name is tried against
// the scope and each of its enclosing scopes, innermost first.
func (c *compiler) resolveName(scope, name, symbol string) (any, error) {
	if name == "" {
		return nil, errMissingTypeName(symbol)
	}
	if strings.HasPrefix(name, ".") {
		if decl, ok := c.symbols[name[1:]]; ok {
			return decl, nil
		}
		return nil, errUnresolvedType(name, symbol)
	}
	for {
		if decl, ok := c.symbols[qualify(scope, name)]; ok {
			return decl, nil
		}
		if scope == "" {
			return nil, errUnresolvedType(name, symbol)
		}
		if dot := strings.LastIndexByte(scope, '.'); dot >= 0 {
			scope = scope[:dot]
		} else {
			scope = ""
		}
	}
}
